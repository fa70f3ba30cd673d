// Package loader turns a device locator into a live driver handle.
//
// Two strategies exist. The symbol strategy opens the module at a path and
// calls its InstantiateDriver entry point. The activation strategy resolves
// a class identity to a class factory, either from the process-local class
// table or from the module registered for the class, and constructs the
// driver through it. Default picks the strategy native to the platform.
package loader

import (
	"fmt"
	"log/slog"

	"github.com/snowmerak/asio.go/lib/registry"
)

// Exported symbol names a module provides.
const (
	SymbolInstantiateDriver = "InstantiateDriver"
	SymbolGetClassObject    = "GetClassObject"
	SymbolCanUnloadNow      = "CanUnloadNow"
	SymbolRegisterServer    = "RegisterServer"
	SymbolUnregisterServer  = "UnregisterServer"
)

// Strategy names a loading strategy.
type Strategy string

const (
	StrategyAuto       Strategy = "auto"
	StrategySymbol     Strategy = "symbol"
	StrategyActivation Strategy = "activation"
)

// Loader loads drivers. A returned handle holds exactly one reference;
// closing it releases the driver and then lets go of the module.
type Loader interface {
	Load(locator string) (*Handle, error)
	Strategy() Strategy
}

// Unload closes h.
func Unload(h *Handle) error {
	return h.Close()
}

// LoadError reports a failed load. Err is the first failure; everything
// opened before it has been released again.
type LoadError struct {
	Locator  string
	Strategy Strategy
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s (%s): %v", e.Locator, e.Strategy, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Option configures a loader.
type Option func(*options)

type options struct {
	opener  Opener
	classes registry.ClassStore
	table   *ClassTable
	logger  *slog.Logger
}

// WithOpener sets how modules are opened.
func WithOpener(o Opener) Option {
	return func(opts *options) {
		opts.opener = o
	}
}

// WithClassStore sets where the activation strategy looks up the module
// serving a class.
func WithClassStore(cs registry.ClassStore) Option {
	return func(opts *options) {
		opts.classes = cs
	}
}

// WithClassTable sets the process-local class table consulted first by the
// activation strategy.
func WithClassTable(t *ClassTable) Option {
	return func(opts *options) {
		opts.table = t
	}
}

// WithLogger sets the loader logger.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		if l != nil {
			opts.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		opener: DefaultOpener(),
		table:  Classes,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the loader for strategy. StrategyAuto and "" select Default.
func New(strategy Strategy, opts ...Option) (Loader, error) {
	switch strategy {
	case StrategyAuto, "":
		return Default(opts...), nil
	case StrategySymbol:
		return NewSymbolLoader(opts...), nil
	case StrategyActivation:
		return NewActivationLoader(opts...), nil
	default:
		return nil, fmt.Errorf("unknown loader strategy %q", strategy)
	}
}
