package module

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/guid"
)

// FutureHandler runs one Future selector.
type FutureHandler func(params any) driver.Error

// Destroyer is implemented by drivers that hold resources to free when the
// last reference is released.
type Destroyer interface {
	Destroy()
}

// Base carries the parts of a driver that every module shares: reference
// counting, instance binding and Future selector dispatch. Drivers embed it
// and implement the remaining operations.
type Base struct {
	refs    atomic.Int32
	counted atomic.Bool
	owner   *Scaffold
	self    driver.Driver

	bound atomic.Pointer[Instance]

	handlers    map[driver.Selector]FutureHandler
	handlerLock sync.RWMutex

	msgLock sync.Mutex
	message string
}

func newBase(owner *Scaffold) *Base {
	b := &Base{
		owner:    owner,
		handlers: make(map[driver.Selector]FutureHandler),
	}
	b.refs.Store(1)
	return b
}

// QueryInterface implements driver.Driver. It answers to a nil iid, to
// IIDUnknown and to the identity of any instance of the module.
func (b *Base) QueryInterface(iid *guid.GUID) (driver.Driver, error) {
	if iid != nil && *iid != driver.IIDUnknown {
		if _, ok := b.owner.instances.FindID(*iid); !ok {
			return nil, driver.ENoInterface
		}
	}
	b.AddRef()
	return b.self, nil
}

// AddRef implements driver.Driver.
func (b *Base) AddRef() uint32 {
	return uint32(b.refs.Add(1))
}

// Release implements driver.Driver. The final release destroys the driver
// and, for instances handed out by the module, drops its use count.
func (b *Base) Release() uint32 {
	n := b.refs.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("module: driver released too often (%d)", n))
	}
	if n == 0 {
		if d, ok := b.self.(Destroyer); ok {
			d.Destroy()
		}
		if b.counted.CompareAndSwap(true, false) {
			b.owner.counter.Done()
		}
	}
	return uint32(n)
}

// Refs returns the current reference count.
func (b *Base) Refs() int32 {
	return b.refs.Load()
}

// Instance returns the instance the driver is bound to.
func (b *Base) Instance() (Instance, bool) {
	inst := b.bound.Load()
	if inst == nil {
		return Instance{}, false
	}
	return *inst, true
}

// Name returns the bound instance name, or "" while unbound.
func (b *Base) Name() string {
	inst, _ := b.Instance()
	return inst.Name
}

// Bind selects the named instance. The name must be in the instance table
// and registered in the module's registry.
func (b *Base) Bind(name string) driver.Error {
	inst, ok := b.owner.instances.FindName(name)
	if !ok || name == "" {
		return driver.NotPresent
	}
	if _, err := b.owner.registry.GetParameter(name, ""); err != nil {
		b.owner.logger.Debug("instance not registered", "name", name, "error", err)
		return driver.NotPresent
	}
	b.bound.Store(&inst)
	return driver.Success
}

func (b *Base) bindInstance(inst Instance) {
	b.bound.Store(&inst)
}

// Ready reports whether the driver is bound. Drivers call it from Init;
// an unbound driver records an error message and cannot be initialized.
func (b *Base) Ready() bool {
	if _, ok := b.Instance(); ok {
		return true
	}
	b.SetErrorMessage("no device instance selected")
	return false
}

// ErrorMessage implements driver.Driver.
func (b *Base) ErrorMessage() string {
	b.msgLock.Lock()
	defer b.msgLock.Unlock()
	return b.message
}

// SetErrorMessage records the text ErrorMessage returns.
func (b *Base) SetErrorMessage(msg string) {
	b.msgLock.Lock()
	defer b.msgLock.Unlock()
	b.message = msg
}

// HandleFuture registers the handler for a Future selector.
// It panics if the selector already has a handler.
func (b *Base) HandleFuture(sel driver.Selector, handler FutureHandler) {
	b.handlerLock.Lock()
	defer b.handlerLock.Unlock()

	if _, exists := b.handlers[sel]; exists || sel == driver.SetInstanceName {
		panic(fmt.Sprintf("handler for selector %#x already registered", int32(sel)))
	}
	b.handlers[sel] = handler
}

// Future implements driver.Driver. SetInstanceName is answered by Bind;
// other selectors go to their registered handler.
func (b *Base) Future(sel driver.Selector, params any) driver.Error {
	if sel == driver.SetInstanceName {
		name, ok := params.(string)
		if !ok {
			return driver.InvalidParameter
		}
		return b.Bind(name)
	}

	b.handlerLock.RLock()
	handler, ok := b.handlers[sel]
	b.handlerLock.RUnlock()
	if !ok {
		return driver.InvalidParameter
	}
	return handler(params)
}
