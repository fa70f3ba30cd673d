package loader

import (
	"fmt"

	"github.com/snowmerak/asio.go/lib/driver"
)

// InstantiateFunc is the type of the InstantiateDriver entry point.
type InstantiateFunc = func() (driver.Driver, error)

// SymbolLoader loads drivers from module paths. Every failure is reported
// as driver.NotPresent, with the cause attached.
type SymbolLoader struct {
	options
	modules *moduleTable
}

// NewSymbolLoader creates a symbol loader.
func NewSymbolLoader(opts ...Option) *SymbolLoader {
	o := buildOptions(opts)
	return &SymbolLoader{options: o, modules: newModuleTable(o.opener)}
}

// Strategy implements Loader.
func (l *SymbolLoader) Strategy() Strategy {
	return StrategySymbol
}

// OpenModules returns the number of modules the loader holds open.
func (l *SymbolLoader) OpenModules() int {
	return l.modules.open()
}

// Load implements Loader. The driver is returned unbound; name the instance
// with driver.BindInstance before Init.
func (l *SymbolLoader) Load(path string) (*Handle, error) {
	l.logger.Debug("loading driver", "path", path, "strategy", StrategySymbol)

	d, err := l.instantiate(path)
	if err != nil {
		l.logger.Warn("failed to load driver", "path", path, "error", err)
		return nil, &LoadError{
			Locator:  path,
			Strategy: StrategySymbol,
			Err:      fmt.Errorf("%w: %w", driver.NotPresent, err),
		}
	}

	h := newHandle(d, path, StrategySymbol, func() error {
		return l.modules.release(path, canUnload)
	})
	l.logger.Info("driver loaded", "path", path, "name", d.DriverName())
	return h, nil
}

func (l *SymbolLoader) instantiate(path string) (driver.Driver, error) {
	lib, err := l.modules.acquire(path)
	if err != nil {
		return nil, err
	}

	d, err := callInstantiate(lib)
	if err != nil {
		if relErr := l.modules.release(path, canUnload); relErr != nil {
			l.logger.Warn("failed to release module", "path", path, "error", relErr)
		}
		return nil, err
	}
	return d, nil
}

func callInstantiate(lib Library) (driver.Driver, error) {
	sym, err := lib.Lookup(SymbolInstantiateDriver)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", SymbolInstantiateDriver, err)
	}

	var fn InstantiateFunc
	switch f := sym.(type) {
	case InstantiateFunc:
		fn = f
	case *InstantiateFunc:
		if f != nil {
			fn = *f
		}
	default:
		return nil, fmt.Errorf("symbol %s has type %T", SymbolInstantiateDriver, sym)
	}
	if fn == nil {
		return nil, fmt.Errorf("symbol %s is nil", SymbolInstantiateDriver)
	}

	d, err := fn()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SymbolInstantiateDriver, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%s returned no driver", SymbolInstantiateDriver)
	}
	return d, nil
}
