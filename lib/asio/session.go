// Package asio offers the classic single-driver host interface on top of
// the loader: one session holds at most one loaded driver, and every call
// is forwarded to it.
package asio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/loader"
	"github.com/snowmerak/asio.go/lib/registry"
)

// Version is the interface version reported in DriverInfo.
const Version = 2

// Session holds at most one loaded driver.
type Session struct {
	loader loader.Loader
	logger *slog.Logger

	mu     sync.Mutex
	handle atomic.Pointer[loader.Handle]
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates an empty session that loads drivers with l.
func NewSession(l loader.Loader, opts ...Option) *Session {
	s := &Session{
		loader: l,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load loads the driver at locator and names its instance. Drivers that do
// not know about instance names are accepted as they are. An empty name
// skips naming. If anything fails the session stays empty. Loading while a
// driver is loaded fails with driver.NoMemory.
func (s *Session) Load(locator, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle.Load() != nil {
		return driver.NoMemory
	}

	h, err := s.loader.Load(locator)
	if err != nil {
		return err
	}

	if name != "" {
		binding, err := driver.BindInstance(h, name)
		if err != nil {
			if closeErr := h.Close(); closeErr != nil {
				s.logger.Warn("failed to unload rejected driver", "locator", locator, "error", closeErr)
			}
			return err
		}
		s.logger.Debug("instance named", "name", name, "binding", binding.String())
	}

	s.handle.Store(h)
	s.logger.Info("driver loaded", "locator", locator, "name", name)
	return nil
}

// LoadByName looks name up in store and loads it.
func (s *Session) LoadByName(store registry.Store, name string) error {
	entry, err := registry.Lookup(store, name)
	if err != nil {
		return fmt.Errorf("%w: %w", driver.NotPresent, err)
	}
	return s.Load(entry.Locator, entry.Name)
}

// Unload releases the loaded driver. It fails with driver.InvalidParameter
// when nothing is loaded.
func (s *Session) Unload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handle.Swap(nil)
	if h == nil {
		return driver.InvalidParameter
	}
	if err := h.Close(); err != nil {
		return err
	}
	s.logger.Info("driver unloaded", "locator", h.Locator())
	return nil
}

// Loaded reports whether a driver is loaded.
func (s *Session) Loaded() bool {
	return s.handle.Load() != nil
}

// Driver returns the loaded driver, or nil.
func (s *Session) Driver() driver.Driver {
	if h := s.handle.Load(); h != nil {
		return h
	}
	return nil
}

func (s *Session) current() (*loader.Handle, error) {
	h := s.handle.Load()
	if h == nil {
		return nil, driver.NotPresent
	}
	return h, nil
}

// Init initializes the driver and describes it.
func (s *Session) Init(sysRef any) (driver.DriverInfo, error) {
	h, err := s.current()
	if err != nil {
		return driver.DriverInfo{}, err
	}
	info := driver.DriverInfo{SysRef: sysRef}
	if !h.Init(sysRef) {
		info.ErrorMessage = h.ErrorMessage()
		return info, driver.NotPresent
	}
	info.ASIOVersion = Version
	info.Name = h.DriverName()
	info.DriverVersion = h.DriverVersion()
	info.ErrorMessage = h.ErrorMessage()
	return info, nil
}

// Exit is kept for interface compatibility; Unload does the work.
func (s *Session) Exit() error {
	return nil
}

// Start starts streaming.
func (s *Session) Start() error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.Start()
}

// Stop stops streaming.
func (s *Session) Stop() error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.Stop()
}

// Channels returns the number of input and output channels.
func (s *Session) Channels() (inputs, outputs int, err error) {
	h, err := s.current()
	if err != nil {
		return 0, 0, err
	}
	return h.Channels()
}

// Latencies returns the input and output latencies in samples.
func (s *Session) Latencies() (input, output int, err error) {
	h, err := s.current()
	if err != nil {
		return 0, 0, err
	}
	return h.Latencies()
}

// BufferSize returns the supported buffer sizes.
func (s *Session) BufferSize() (driver.BufferSizes, error) {
	h, err := s.current()
	if err != nil {
		return driver.BufferSizes{}, err
	}
	return h.BufferSize()
}

// CanSampleRate checks whether rate is supported.
func (s *Session) CanSampleRate(rate float64) error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.CanSampleRate(rate)
}

// SampleRate returns the current sample rate.
func (s *Session) SampleRate() (float64, error) {
	h, err := s.current()
	if err != nil {
		return 0, err
	}
	return h.SampleRate()
}

// SetSampleRate changes the sample rate.
func (s *Session) SetSampleRate(rate float64) error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.SetSampleRate(rate)
}

// ClockSources lists the clock sources.
func (s *Session) ClockSources() ([]driver.ClockSource, error) {
	h, err := s.current()
	if err != nil {
		return nil, err
	}
	return h.ClockSources()
}

// SetClockSource selects a clock source.
func (s *Session) SetClockSource(index int) error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.SetClockSource(index)
}

// SamplePosition returns the sample position and its timestamp.
func (s *Session) SamplePosition() (samples, timestamp int64, err error) {
	h, err := s.current()
	if err != nil {
		return 0, 0, err
	}
	return h.SamplePosition()
}

// ChannelInfo completes info.
func (s *Session) ChannelInfo(info *driver.ChannelInfo) error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.ChannelInfo(info)
}

// CreateBuffers allocates the streaming buffers.
func (s *Session) CreateBuffers(infos []driver.BufferInfo, bufferSize int, callbacks *driver.Callbacks) error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.CreateBuffers(infos, bufferSize, callbacks)
}

// DisposeBuffers frees the streaming buffers.
func (s *Session) DisposeBuffers() error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.DisposeBuffers()
}

// ControlPanel opens the driver's control panel.
func (s *Session) ControlPanel() error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.ControlPanel()
}

// Future runs an extension selector.
func (s *Session) Future(selector driver.Selector, params any) driver.Error {
	h, err := s.current()
	if err != nil {
		return driver.NotPresent
	}
	return h.Future(selector, params)
}

// OutputReady tells the driver that output buffers are filled.
func (s *Session) OutputReady() error {
	h, err := s.current()
	if err != nil {
		return err
	}
	return h.OutputReady()
}
