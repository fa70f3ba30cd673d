package loader

import (
	"errors"
	"sync/atomic"

	"github.com/snowmerak/asio.go/lib/driver"
)

// ErrClosed is returned when a handle is closed more often than retained.
var ErrClosed = errors.New("loader: handle already closed")

// Handle is the host's reference to a loaded driver. The driver operations
// are promoted from the embedded driver. Handles are shared with Retain and
// given up with Close; the last Close releases the driver and afterwards
// lets go of the module.
type Handle struct {
	driver.Driver

	locator  string
	strategy Strategy
	refs     atomic.Int32
	unload   func() error
}

func newHandle(d driver.Driver, locator string, strategy Strategy, unload func() error) *Handle {
	h := &Handle{
		Driver:   d,
		locator:  locator,
		strategy: strategy,
		unload:   unload,
	}
	h.refs.Store(1)
	return h
}

// Locator returns what the handle was loaded from.
func (h *Handle) Locator() string {
	return h.locator
}

// LoadedBy returns the strategy that loaded the handle.
func (h *Handle) LoadedBy() Strategy {
	return h.strategy
}

// Retain adds a host reference and returns h. A handle whose last
// reference is gone stays closed.
func (h *Handle) Retain() *Handle {
	for {
		n := h.refs.Load()
		if n <= 0 || h.refs.CompareAndSwap(n, n+1) {
			return h
		}
	}
}

// Close drops a host reference. The caller must not have operations in
// flight on the handle when the last reference goes away.
func (h *Handle) Close() error {
	var n int32
	for {
		n = h.refs.Load()
		if n <= 0 {
			return ErrClosed
		}
		if h.refs.CompareAndSwap(n, n-1) {
			break
		}
	}
	if n > 1 {
		return nil
	}

	h.Driver.Release()
	if h.unload != nil {
		return h.unload()
	}
	return nil
}
