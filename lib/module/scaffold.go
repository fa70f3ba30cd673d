// Package module provides the scaffolding a device module is built on.
//
// A module declares its instances and a constructor; the Scaffold turns
// them into the exported entry points of both loading strategies
// (InstantiateDriver for symbol lookup, GetClassObject and CanUnloadNow for
// activation) and into the installer entry points RegisterServer and
// UnregisterServer.
package module

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/snowmerak/asio.go/lib/config"
	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/guid"
	"github.com/snowmerak/asio.go/lib/registry"
)

// Environment variables read by RegisterServer and UnregisterServer.
const (
	// InstallNameEnv selects the instance to act on.
	InstallNameEnv = "CWASIO_INSTALL_NAME"
	// InstallPathEnv supplies the module path when none was configured.
	InstallPathEnv = "CWASIO_INSTALL_PATH"
)

// Constructor builds a driver around base. The returned driver must embed
// base so that its reference counting and Future dispatch are used.
type Constructor func(base *Base) driver.Driver

// Scaffold holds the per-module state behind the entry points.
type Scaffold struct {
	instances InstanceTable
	construct Constructor
	counter   *UseCounter

	registry registry.Store
	classes  registry.ClassStore
	path     string
	logger   *slog.Logger
}

// Option configures a Scaffold.
type Option func(*Scaffold)

// WithRegistry sets the registry instance binding checks and
// RegisterServer writes. Without it the scaffold uses the platform store
// at the root named by config.EnvRegistryRoot, or the default root.
func WithRegistry(s registry.Store) Option {
	return func(sc *Scaffold) {
		sc.registry = s
	}
}

// WithClasses makes RegisterServer record class registrations. Registry
// entries then carry the class identity as locator instead of the path.
func WithClasses(cs registry.ClassStore) Option {
	return func(sc *Scaffold) {
		sc.classes = cs
	}
}

// WithModulePath sets the path installers record for the module.
func WithModulePath(path string) Option {
	return func(sc *Scaffold) {
		sc.path = path
	}
}

// WithLogger sets the scaffold logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *Scaffold) {
		if l != nil {
			sc.logger = l
		}
	}
}

// New creates a scaffold. counter must be shared by everything that keeps
// the module loaded.
func New(instances InstanceTable, construct Constructor, counter *UseCounter, opts ...Option) *Scaffold {
	if counter == nil {
		counter = &UseCounter{}
	}
	s := &Scaffold{
		instances: instances,
		construct: construct,
		counter:   counter,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = registry.NewDefault(os.Getenv(config.EnvRegistryRoot), registry.WithLogger(s.logger))
	}
	return s
}

// Instances returns the instance table.
func (s *Scaffold) Instances() InstanceTable {
	return s.instances
}

// Counter returns the module use counter.
func (s *Scaffold) Counter() *UseCounter {
	return s.counter
}

func (s *Scaffold) newDriver() (*Base, driver.Driver, error) {
	base := newBase(s)
	d := s.construct(base)
	if d == nil {
		return nil, nil, driver.EOutOfMemory
	}
	base.self = d
	return base, d, nil
}

// InstantiateDriver creates an unbound driver holding one reference. The
// host names the instance afterwards with the SetInstanceName selector.
func (s *Scaffold) InstantiateDriver() (driver.Driver, error) {
	base, d, err := s.newDriver()
	if err != nil {
		return nil, err
	}

	obj, err := d.QueryInterface(nil)
	// Drop the construction reference; on failure this destroys the driver.
	base.Release()
	if err != nil {
		return nil, err
	}

	base.counted.Store(true)
	s.counter.Add()
	s.logger.Debug("driver instantiated", "refs", base.Refs())
	return obj, nil
}

// GetClassObject returns the class factory for clsid. iid must be
// IIDUnknown or IIDClassFactory.
func (s *Scaffold) GetClassObject(clsid, iid guid.GUID) (driver.ClassFactory, error) {
	inst, ok := s.instances.FindID(clsid)
	if !ok {
		return nil, driver.ClassEClassNotAvailable
	}
	if iid != driver.IIDUnknown && iid != driver.IIDClassFactory {
		return nil, driver.ENoInterface
	}
	f := &classFactory{owner: s, instance: inst}
	f.AddRef()
	return f, nil
}

// CanUnloadNow returns SOK when no instance or lock keeps the module alive.
func (s *Scaffold) CanUnloadNow() driver.HResult {
	if s.counter.CanUnload() {
		return driver.SOK
	}
	return driver.SFalse
}

func (s *Scaffold) installInstance() (Instance, error) {
	inst, ok := s.instances.FindName(os.Getenv(InstallNameEnv))
	if !ok {
		return Instance{}, driver.ErrorDevNotExist
	}
	return inst, nil
}

// RegisterServer records the instance selected by InstallNameEnv (the
// first instance if unset) in the class store and the registry.
func (s *Scaffold) RegisterServer() error {
	inst, err := s.installInstance()
	if err != nil {
		return err
	}
	path := s.path
	if path == "" {
		path = os.Getenv(InstallPathEnv)
	}
	if path == "" {
		return fmt.Errorf("register %s: module path unknown: %w", inst.Name, driver.EInvalidArg)
	}

	locator := path
	if s.classes != nil {
		if err := s.classes.RegisterClass(inst.ID, inst.Name, path); err != nil {
			return fmt.Errorf("register %s: %w", inst.Name, err)
		}
		locator = inst.ID.String()
	}
	if err := s.registry.Register(inst.Name, locator, inst.Description); err != nil {
		return fmt.Errorf("register %s: %w", inst.Name, err)
	}
	s.logger.Info("driver registered", "name", inst.Name, "locator", locator)
	return nil
}

// UnregisterServer removes what RegisterServer added.
func (s *Scaffold) UnregisterServer() error {
	inst, err := s.installInstance()
	if err != nil {
		return err
	}
	if err := s.registry.Unregister(inst.Name); err != nil && !errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("unregister %s: %w", inst.Name, err)
	}
	if s.classes != nil {
		if err := s.classes.UnregisterClass(inst.ID); err != nil && !errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("unregister %s: %w", inst.Name, err)
		}
	}
	s.logger.Info("driver unregistered", "name", inst.Name)
	return nil
}

// classFactory constructs drivers already bound to one instance.
type classFactory struct {
	owner    *Scaffold
	instance Instance
}

func (f *classFactory) AddRef() uint32 {
	return uint32(f.owner.counter.Add())
}

func (f *classFactory) Release() uint32 {
	return uint32(f.owner.counter.Done())
}

func (f *classFactory) CreateInstance(outer any, iid guid.GUID) (driver.Driver, error) {
	if outer != nil {
		return nil, driver.ClassENoAggregation
	}
	base, d, err := f.owner.newDriver()
	if err != nil {
		return nil, err
	}
	base.bindInstance(f.instance)

	obj, err := d.QueryInterface(&iid)
	base.Release()
	if err != nil {
		return nil, err
	}

	base.counted.Store(true)
	f.owner.counter.Add()
	return obj, nil
}

func (f *classFactory) LockServer(lock bool) error {
	if lock {
		f.owner.counter.Add()
	} else {
		f.owner.counter.Done()
	}
	return nil
}
