package loader

import (
	"errors"
	"fmt"

	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/guid"
	"github.com/snowmerak/asio.go/lib/registry"
)

// GetClassObjectFunc is the type of the GetClassObject entry point.
type GetClassObjectFunc = func(clsid, iid guid.GUID) (driver.ClassFactory, error)

// CanUnloadNowFunc is the type of the CanUnloadNow entry point.
type CanUnloadNowFunc = func() driver.HResult

// ActivationLoader loads drivers by class identity. Failures carry the
// activation status code (driver.HResult) unchanged.
type ActivationLoader struct {
	options
	modules *moduleTable
}

// NewActivationLoader creates an activation loader.
func NewActivationLoader(opts ...Option) *ActivationLoader {
	o := buildOptions(opts)
	return &ActivationLoader{options: o, modules: newModuleTable(o.opener)}
}

// Strategy implements Loader.
func (l *ActivationLoader) Strategy() Strategy {
	return StrategyActivation
}

// OpenModules returns the number of modules the loader holds open.
func (l *ActivationLoader) OpenModules() int {
	return l.modules.open()
}

// Load implements Loader. locator is a class identity in braced text form.
// The class identity doubles as the requested interface identity, and the
// driver comes back bound to the instance the class names.
func (l *ActivationLoader) Load(locator string) (*Handle, error) {
	l.logger.Debug("loading driver", "clsid", locator, "strategy", StrategyActivation)

	fail := func(err error) (*Handle, error) {
		l.logger.Warn("failed to load driver", "clsid", locator, "error", err)
		return nil, &LoadError{Locator: locator, Strategy: StrategyActivation, Err: err}
	}

	id, err := guid.Parse(locator)
	if err != nil {
		return fail(err)
	}

	factory, path, err := l.classObject(id)
	if err != nil {
		return fail(err)
	}

	d, err := factory.CreateInstance(nil, id)
	factory.Release()
	if err == nil && d == nil {
		err = driver.EFail
	}
	if err != nil {
		l.releaseModule(path)
		return fail(err)
	}

	h := newHandle(d, locator, StrategyActivation, func() error {
		if path == "" {
			return nil
		}
		return l.modules.release(path, canUnload)
	})
	l.logger.Info("driver loaded", "clsid", locator, "name", d.DriverName())
	return h, nil
}

// classObject finds the factory of id. path is the module that was opened
// for it, or "" for factories from the class table.
func (l *ActivationLoader) classObject(id guid.GUID) (driver.ClassFactory, string, error) {
	if l.table != nil {
		if f, ok := l.table.lookup(id); ok {
			return f, "", nil
		}
	}
	if l.classes == nil {
		return nil, "", driver.RegDBEClassNotReg
	}

	path, err := l.classes.ServerPath(id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, "", driver.RegDBEClassNotReg
		}
		return nil, "", err
	}

	lib, err := l.modules.acquire(path)
	if err != nil {
		return nil, "", withHResult(err)
	}

	f, err := callGetClassObject(lib, id)
	if err != nil {
		l.releaseModule(path)
		return nil, "", err
	}
	return f, path, nil
}

func (l *ActivationLoader) releaseModule(path string) {
	if path == "" {
		return
	}
	if err := l.modules.release(path, canUnload); err != nil {
		l.logger.Warn("failed to release module", "path", path, "error", err)
	}
}

func callGetClassObject(lib Library, id guid.GUID) (driver.ClassFactory, error) {
	sym, err := lib.Lookup(SymbolGetClassObject)
	if err != nil {
		return nil, fmt.Errorf("%w: symbol %s: %w", driver.COEErrorInDLL, SymbolGetClassObject, err)
	}

	var fn GetClassObjectFunc
	switch f := sym.(type) {
	case GetClassObjectFunc:
		fn = f
	case *GetClassObjectFunc:
		if f != nil {
			fn = *f
		}
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: symbol %s has type %T", driver.COEErrorInDLL, SymbolGetClassObject, sym)
	}

	f, err := fn(id, driver.IIDClassFactory)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, driver.EFail
	}
	return f, nil
}

// withHResult keeps a status code already carried by err and reports any
// other open failure as EFail.
func withHResult(err error) error {
	var hr driver.HResult
	if errors.As(err, &hr) {
		return err
	}
	return fmt.Errorf("%w: %w", driver.EFail, err)
}
