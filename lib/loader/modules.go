package loader

import (
	"fmt"
	"sync"

	"github.com/snowmerak/asio.go/lib/driver"
)

// moduleTable shares opened modules between the handles created from them.
type moduleTable struct {
	opener Opener

	mu      sync.Mutex
	modules map[string]*moduleEntry
}

type moduleEntry struct {
	lib  Library
	refs int
}

func newModuleTable(opener Opener) *moduleTable {
	return &moduleTable{
		opener:  opener,
		modules: make(map[string]*moduleEntry),
	}
}

// acquire opens path, or reuses the module if it is already open.
func (t *moduleTable) acquire(path string) (Library, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok := t.modules[path]; ok {
		m.refs++
		return m.lib, nil
	}
	lib, err := t.opener.Open(path)
	if err != nil {
		return nil, err
	}
	if lib == nil {
		return nil, fmt.Errorf("opener returned no module for %s", path)
	}
	t.modules[path] = &moduleEntry{lib: lib, refs: 1}
	return lib, nil
}

// release gives up one use of path. The module is closed once unused and
// canUnload, if given, agrees. A module kept open here is closed by a
// later release.
func (t *moduleTable) release(path string, canUnload func(Library) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.modules[path]
	if !ok {
		return fmt.Errorf("module %s is not open", path)
	}
	if m.refs > 0 {
		m.refs--
	}
	if m.refs > 0 {
		return nil
	}
	if canUnload != nil && !canUnload(m.lib) {
		return nil
	}
	delete(t.modules, path)
	if err := m.lib.Close(); err != nil {
		return fmt.Errorf("failed to close module %s: %w", path, err)
	}
	return nil
}

// open returns the number of modules currently open.
func (t *moduleTable) open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.modules)
}

// canUnload asks the module whether it is still in use. Modules without
// CanUnloadNow are unloaded as soon as the loader stops using them.
func canUnload(lib Library) bool {
	sym, err := lib.Lookup(SymbolCanUnloadNow)
	if err != nil {
		return true
	}
	switch f := sym.(type) {
	case CanUnloadNowFunc:
		return f() == driver.SOK
	case *CanUnloadNowFunc:
		return f == nil || *f == nil || (*f)() == driver.SOK
	default:
		return true
	}
}
