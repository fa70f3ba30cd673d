package loader

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/guid"
	"github.com/snowmerak/asio.go/lib/module"
	"github.com/snowmerak/asio.go/lib/module/nulldriver"
	"github.com/snowmerak/asio.go/lib/registry"
)

// fakeLibrary serves symbols from a map and counts how often it is closed.
type fakeLibrary struct {
	symbols map[string]any
	closed  atomic.Int32
}

func (l *fakeLibrary) Lookup(symbol string) (any, error) {
	s, ok := l.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %s not found", symbol)
	}
	return s, nil
}

func (l *fakeLibrary) Close() error {
	l.closed.Add(1)
	return nil
}

// fakeOpener maps paths to libraries and counts opens.
type fakeOpener struct {
	libs   map[string]*fakeLibrary
	opened atomic.Int32
}

func (o *fakeOpener) Open(path string) (Library, error) {
	lib, ok := o.libs[path]
	if !ok {
		return nil, fmt.Errorf("cannot open %s", path)
	}
	o.opened.Add(1)
	return lib, nil
}

// anyName reports every instance as registered.
type anyName struct {
	registry.Store
}

func (anyName) GetParameter(name, key string) (string, error) {
	return "", nil
}

func nullModule(counter *module.UseCounter) *fakeLibrary {
	sc := nulldriver.NewScaffold(counter, module.WithRegistry(anyName{}))
	return &fakeLibrary{symbols: map[string]any{
		SymbolInstantiateDriver: sc.InstantiateDriver,
		SymbolGetClassObject:    sc.GetClassObject,
		SymbolCanUnloadNow:      sc.CanUnloadNow,
	}}
}

func TestSymbolLoader_Load(t *testing.T) {
	counter := &module.UseCounter{}
	lib := nullModule(counter)
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/lib/null.so": lib}}
	l := NewSymbolLoader(WithOpener(opener))

	h, err := l.Load("/lib/null.so")
	require.NoError(t, err)
	assert.Equal(t, "/lib/null.so", h.Locator())
	assert.Equal(t, StrategySymbol, h.LoadedBy())
	assert.Equal(t, int64(1), counter.Count())
	assert.Equal(t, 1, l.OpenModules())

	binding, err := driver.BindInstance(h, nulldriver.Instances[0].Name)
	require.NoError(t, err)
	assert.Equal(t, driver.BindingConfirmed, binding)
	assert.True(t, h.Init(nil))

	require.NoError(t, Unload(h))
	assert.Equal(t, int64(0), counter.Count())
	assert.Equal(t, 0, l.OpenModules())
	assert.Equal(t, int32(1), lib.closed.Load())
	assert.ErrorIs(t, h.Close(), ErrClosed)
}

func TestSymbolLoader_SharedModule(t *testing.T) {
	counter := &module.UseCounter{}
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/lib/null.so": nullModule(counter)}}
	l := NewSymbolLoader(WithOpener(opener))

	a, err := l.Load("/lib/null.so")
	require.NoError(t, err)
	b, err := l.Load("/lib/null.so")
	require.NoError(t, err)
	assert.Equal(t, int32(1), opener.opened.Load())
	assert.Equal(t, int64(2), counter.Count())

	require.NoError(t, a.Close())
	assert.Equal(t, 1, l.OpenModules())
	require.NoError(t, b.Close())
	assert.Equal(t, 0, l.OpenModules())
}

func TestSymbolLoader_ModuleStaysWhileDriverReferenced(t *testing.T) {
	counter := &module.UseCounter{}
	lib := nullModule(counter)
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/lib/null.so": lib}}
	l := NewSymbolLoader(WithOpener(opener))

	h, err := l.Load("/lib/null.so")
	require.NoError(t, err)
	d := h.Driver
	d.AddRef()

	require.NoError(t, h.Close())
	assert.Equal(t, int64(1), counter.Count())
	assert.Equal(t, 1, l.OpenModules())
	assert.Equal(t, int32(0), lib.closed.Load())

	assert.Equal(t, uint32(0), d.Release())
	assert.Equal(t, int64(0), counter.Count())

	// The next release of the module closes it.
	h, err = l.Load("/lib/null.so")
	require.NoError(t, err)
	assert.Equal(t, int32(1), opener.opened.Load())
	require.NoError(t, h.Close())
	assert.Equal(t, 0, l.OpenModules())
	assert.Equal(t, int32(1), lib.closed.Load())
}

func TestSymbolLoader_Retain(t *testing.T) {
	counter := &module.UseCounter{}
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/lib/null.so": nullModule(counter)}}
	l := NewSymbolLoader(WithOpener(opener))

	h, err := l.Load("/lib/null.so")
	require.NoError(t, err)
	h.Retain()

	require.NoError(t, h.Close())
	assert.Equal(t, int64(1), counter.Count())
	require.NoError(t, h.Close())
	assert.Equal(t, int64(0), counter.Count())

	assert.ErrorIs(t, h.Close(), ErrClosed)
	assert.ErrorIs(t, h.Close(), ErrClosed)
	h.Retain()
	assert.ErrorIs(t, h.Close(), ErrClosed)
	assert.Equal(t, int64(0), counter.Count())
}

func TestSymbolLoader_Failures(t *testing.T) {
	failing := func() (driver.Driver, error) { return nil, driver.NoMemory }
	var nilFn InstantiateFunc

	libs := map[string]*fakeLibrary{
		"/lib/nosym.so":   {symbols: map[string]any{}},
		"/lib/badtype.so": {symbols: map[string]any{SymbolInstantiateDriver: 42}},
		"/lib/fails.so":   {symbols: map[string]any{SymbolInstantiateDriver: failing}},
		"/lib/nilfn.so":   {symbols: map[string]any{SymbolInstantiateDriver: &nilFn}},
	}
	opener := &fakeOpener{libs: libs}
	l := NewSymbolLoader(WithOpener(opener))

	for _, path := range []string{"/lib/missing.so", "/lib/nosym.so", "/lib/badtype.so", "/lib/fails.so", "/lib/nilfn.so"} {
		t.Run(path, func(t *testing.T) {
			h, err := l.Load(path)
			assert.Nil(t, h)
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, path, le.Locator)
			assert.Equal(t, StrategySymbol, le.Strategy)
			assert.ErrorIs(t, err, driver.NotPresent)
			assert.Equal(t, driver.NotPresent, driver.Code(err))
			assert.Equal(t, 0, l.OpenModules())
		})
	}

	for path, lib := range libs {
		assert.Equal(t, int32(1), lib.closed.Load(), path)
	}
}

func TestSymbolLoader_ConcurrentLoadUnload(t *testing.T) {
	counter := &module.UseCounter{}
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/lib/null.so": nullModule(counter)}}
	l := NewSymbolLoader(WithOpener(opener))

	const workers = 4
	const cycles = 100

	var wg sync.WaitGroup
	var negative atomic.Bool
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < cycles; i++ {
				h, err := l.Load("/lib/null.so")
				if err != nil {
					errs <- err
					return
				}
				if counter.Count() < 0 {
					negative.Store(true)
				}
				if err := h.Close(); err != nil {
					errs <- err
					return
				}
				if counter.Count() < 0 {
					negative.Store(true)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.False(t, negative.Load())
	assert.Equal(t, int64(0), counter.Count())
	assert.Equal(t, 0, l.OpenModules())
}

func TestActivationLoader_ClassStore(t *testing.T) {
	counter := &module.UseCounter{}
	lib := nullModule(counter)
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/lib/null.so": lib}}
	classes := registry.NewFileClassStore(t.TempDir())
	inst := nulldriver.Instances[1]
	require.NoError(t, classes.RegisterClass(inst.ID, inst.Name, "/lib/null.so"))

	l := NewActivationLoader(WithOpener(opener), WithClassStore(classes), WithClassTable(NewClassTable()))

	h, err := l.Load(inst.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StrategyActivation, h.LoadedBy())
	assert.Equal(t, int64(1), counter.Count())

	// Activation binds the instance named by the class.
	assert.True(t, h.Init(nil))
	assert.Equal(t, inst.Name, h.DriverName())

	require.NoError(t, h.Close())
	assert.Equal(t, int64(0), counter.Count())
	assert.Equal(t, 0, l.OpenModules())
	assert.Equal(t, int32(1), lib.closed.Load())
}

func TestActivationLoader_ModuleStaysWhileLocked(t *testing.T) {
	counter := &module.UseCounter{}
	lib := nullModule(counter)
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/lib/null.so": lib}}
	classes := registry.NewFileClassStore(t.TempDir())
	inst := nulldriver.Instances[0]
	require.NoError(t, classes.RegisterClass(inst.ID, inst.Name, "/lib/null.so"))
	l := NewActivationLoader(WithOpener(opener), WithClassStore(classes), WithClassTable(NewClassTable()))

	h, err := l.Load(inst.ID.String())
	require.NoError(t, err)

	counter.Add()
	require.NoError(t, h.Close())
	assert.Equal(t, 1, l.OpenModules())
	assert.Equal(t, int32(0), lib.closed.Load())

	counter.Done()
	h, err = l.Load(inst.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int32(1), opener.opened.Load())
	require.NoError(t, h.Close())
	assert.Equal(t, 0, l.OpenModules())
}

func TestActivationLoader_ClassTable(t *testing.T) {
	counter := &module.UseCounter{}
	sc := nulldriver.NewScaffold(counter)
	inst := nulldriver.Instances[0]
	table := NewClassTable()

	f, err := sc.GetClassObject(inst.ID, driver.IIDClassFactory)
	require.NoError(t, err)
	revoke, err := table.Register(inst.ID, f)
	require.NoError(t, err)
	f.Release()

	_, err = table.Register(inst.ID, f)
	assert.Error(t, err)

	l := NewActivationLoader(WithClassTable(table))
	h, err := l.Load(inst.ID.String())
	require.NoError(t, err)
	assert.Equal(t, inst.Name, h.DriverName())
	require.NoError(t, h.Close())

	revoke()
	revoke()
	assert.Equal(t, int64(0), counter.Count())

	_, err = l.Load(inst.ID.String())
	assert.ErrorIs(t, err, driver.RegDBEClassNotReg)
}

func TestActivationLoader_Failures(t *testing.T) {
	counter := &module.UseCounter{}
	lib := nullModule(counter)
	noEntry := &fakeLibrary{symbols: map[string]any{}}
	opener := &fakeOpener{libs: map[string]*fakeLibrary{"/lib/null.so": lib, "/lib/empty.so": noEntry}}
	classes := registry.NewFileClassStore(t.TempDir())

	foreign := guid.MustParse("{11111111-2222-3333-4444-555555555555}")
	empty := guid.MustParse("{11111111-2222-3333-4444-666666666666}")
	missing := guid.MustParse("{11111111-2222-3333-4444-777777777777}")
	require.NoError(t, classes.RegisterClass(foreign, "Foreign", "/lib/null.so"))
	require.NoError(t, classes.RegisterClass(empty, "Empty", "/lib/empty.so"))
	require.NoError(t, classes.RegisterClass(missing, "Missing", "/lib/missing.so"))

	l := NewActivationLoader(WithOpener(opener), WithClassStore(classes), WithClassTable(NewClassTable()))

	tests := []struct {
		name    string
		locator string
		want    error
	}{
		{"invalid identity", "not-a-guid", guid.ErrInvalid},
		{"not registered", "{99999999-2222-3333-4444-555555555555}", driver.RegDBEClassNotReg},
		{"class not in module", foreign.String(), driver.ClassEClassNotAvailable},
		{"no entry point", empty.String(), driver.COEErrorInDLL},
		{"module not found", missing.String(), driver.EFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := l.Load(tt.locator)
			assert.Nil(t, h)
			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, StrategyActivation, le.Strategy)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, l.OpenModules())
		})
	}
	assert.Equal(t, int64(0), counter.Count())
}

func TestNew(t *testing.T) {
	l, err := New(StrategySymbol)
	require.NoError(t, err)
	assert.Equal(t, StrategySymbol, l.Strategy())

	l, err = New(StrategyActivation)
	require.NoError(t, err)
	assert.Equal(t, StrategyActivation, l.Strategy())

	l, err = New("")
	require.NoError(t, err)
	assert.Equal(t, Default().Strategy(), l.Strategy())

	_, err = New("telepathy")
	assert.Error(t, err)
}
