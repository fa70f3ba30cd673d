// Package nulldriver is a complete device module that produces silence.
// It runs the streaming loop of a real driver on a timer, which makes it
// useful for exercising hosts without audio hardware.
package nulldriver

import (
	"math/bits"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/guid"
	"github.com/snowmerak/asio.go/lib/module"
)

const (
	// Version is reported by DriverVersion.
	Version = 1

	numInputs  = 2
	numOutputs = 2
	sampleType = driver.Float32LSB
)

// Sizes is the buffer size range of the device.
var Sizes = driver.BufferSizes{Min: 64, Max: 4096, Preferred: 256, Granularity: -1}

// Rates lists the supported sample rates.
var Rates = []float64{44100, 48000, 88200, 96000}

// Instances are the devices the module exposes.
var Instances = module.InstanceTable{
	{
		Name:        "Null Device",
		ID:          guid.MustParse("{a3f6c1d0-5e2b-4c7a-9d18-6b0e4f2a7c31}"),
		Description: "Silent reference device",
	},
	{
		Name:        "Null Device 2",
		ID:          guid.MustParse("{a3f6c1d0-5e2b-4c7a-9d18-6b0e4f2a7c32}"),
		Description: "Second silent reference device",
	},
}

// NewScaffold returns the module scaffold for Instances.
func NewScaffold(counter *module.UseCounter, opts ...module.Option) *module.Scaffold {
	return module.New(Instances, New, counter, opts...)
}

// Device is one null driver instance.
type Device struct {
	*module.Base

	mu          sync.Mutex
	initialized bool
	rate        float64
	bufferSize  int
	buffers     []driver.BufferInfo
	callbacks   *driver.Callbacks

	running bool
	stop    chan struct{}
	done    chan struct{}

	position  atomic.Int64
	timestamp atomic.Int64
}

var _ driver.Driver = (*Device)(nil)

// New is the module.Constructor of the null driver.
func New(base *module.Base) driver.Driver {
	d := &Device{Base: base, rate: Rates[1]}
	base.HandleFuture(driver.CanTimeInfo, func(any) driver.Error { return driver.Success })
	base.HandleFuture(driver.CanDoIoFormat, d.canDoIoFormat)
	base.HandleFuture(driver.GetIoFormat, d.getIoFormat)
	base.HandleFuture(driver.GetInternalBufferSamples, d.internalBufferSamples)
	return d
}

// Init implements driver.Driver.
func (d *Device) Init(sysRef any) bool {
	if !d.Ready() {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	return true
}

// DriverName implements driver.Driver.
func (d *Device) DriverName() string {
	if name := d.Name(); name != "" {
		return name
	}
	return Instances[0].Name
}

// DriverVersion implements driver.Driver.
func (d *Device) DriverVersion() int {
	return Version
}

// Start implements driver.Driver.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return driver.NotPresent
	}
	if d.buffers == nil {
		return driver.InvalidMode
	}
	if d.running {
		return nil
	}

	d.position.Store(0)
	d.timestamp.Store(time.Now().UnixNano())
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.running = true
	go d.stream(d.buffers, d.bufferSize, d.rate, d.callbacks, d.stop, d.done)
	return nil
}

// Stop implements driver.Driver. It returns once the last buffer switch
// callback has returned.
func (d *Device) Stop() error {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return driver.NotPresent
	}
	done := d.halt()
	d.mu.Unlock()

	wait(done)
	return nil
}

// halt signals the stream goroutine to end and returns the channel it
// closes on exit, or nil if nothing is streaming. d.mu must be held, and
// must be released before waiting: callbacks may call back into d.
func (d *Device) halt() <-chan struct{} {
	if !d.running {
		return nil
	}
	close(d.stop)
	d.running = false
	return d.done
}

func wait(done <-chan struct{}) {
	if done != nil {
		<-done
	}
}

// stream calls the host once per buffer period until stop is closed.
func (d *Device) stream(buffers []driver.BufferInfo, size int, rate float64, cb *driver.Callbacks, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timeInfo := cb.BufferSwitchTimeInfo != nil
	if timeInfo && cb.BufferSwitch != nil && cb.Message != nil {
		timeInfo = hostSupportsTimeInfo(cb.Message)
	}

	period := time.Duration(float64(size) / rate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	index := 0
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			for _, b := range buffers {
				if b.IsInput {
					clear(b.Buffers[index])
				}
			}
			pos := d.position.Add(int64(size))
			d.timestamp.Store(now.UnixNano())

			if timeInfo {
				t := &driver.Time{Info: driver.TimeInfo{
					Speed:          1,
					SystemTime:     now.UnixNano(),
					SamplePosition: pos,
					SampleRate:     rate,
					Flags:          driver.SystemTimeValid | driver.SamplePositionValid | driver.SampleRateValid,
				}}
				cb.BufferSwitchTimeInfo(t, index, false)
			} else {
				cb.BufferSwitch(index, false)
			}
			index ^= 1
		}
	}
}

// hostSupportsTimeInfo asks the host whether it wants BufferSwitchTimeInfo
// instead of BufferSwitch.
func hostSupportsTimeInfo(message func(driver.MessageSelector, int, any, *float64) int) bool {
	if message(driver.SelectorSupported, int(driver.SupportsTimeInfo), nil, nil) != 1 {
		return false
	}
	return message(driver.SupportsTimeInfo, 0, nil, nil) == 1
}

// Channels implements driver.Driver.
func (d *Device) Channels() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, 0, driver.NotPresent
	}
	return numInputs, numOutputs, nil
}

// Latencies implements driver.Driver.
func (d *Device) Latencies() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, 0, driver.NotPresent
	}
	size := d.bufferSize
	if size == 0 {
		size = Sizes.Preferred
	}
	return size, size, nil
}

// BufferSize implements driver.Driver.
func (d *Device) BufferSize() (driver.BufferSizes, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return driver.BufferSizes{}, driver.NotPresent
	}
	return Sizes, nil
}

// CanSampleRate implements driver.Driver.
func (d *Device) CanSampleRate(rate float64) error {
	for _, r := range Rates {
		if r == rate {
			return nil
		}
	}
	return driver.NoClock
}

// SampleRate implements driver.Driver.
func (d *Device) SampleRate() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, driver.NotPresent
	}
	return d.rate, nil
}

// SetSampleRate implements driver.Driver. The rate cannot change while
// streaming.
func (d *Device) SetSampleRate(rate float64) error {
	if err := d.CanSampleRate(rate); err != nil {
		return err
	}
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return driver.NotPresent
	}
	if d.running {
		d.mu.Unlock()
		return driver.InvalidMode
	}
	changed := d.rate != rate
	d.rate = rate
	cb := d.callbacks
	d.mu.Unlock()

	if changed && cb != nil && cb.SampleRateDidChange != nil {
		cb.SampleRateDidChange(rate)
	}
	return nil
}

// ClockSources implements driver.Driver.
func (d *Device) ClockSources() ([]driver.ClockSource, error) {
	return []driver.ClockSource{{
		Index:             0,
		AssociatedChannel: -1,
		AssociatedGroup:   -1,
		IsCurrent:         true,
		Name:              "Internal",
	}}, nil
}

// SetClockSource implements driver.Driver.
func (d *Device) SetClockSource(index int) error {
	if index != 0 {
		return driver.InvalidParameter
	}
	return nil
}

// SamplePosition implements driver.Driver.
func (d *Device) SamplePosition() (int64, int64, error) {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return 0, 0, driver.SPNotAdvancing
	}
	return d.position.Load(), d.timestamp.Load(), nil
}

// ChannelInfo implements driver.Driver.
func (d *Device) ChannelInfo(info *driver.ChannelInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return driver.NotPresent
	}
	if !validChannel(info.Channel, info.IsInput) {
		return driver.InvalidParameter
	}

	info.IsActive = false
	for _, b := range d.buffers {
		if b.IsInput == info.IsInput && b.Channel == info.Channel {
			info.IsActive = true
			break
		}
	}
	info.Group = 0
	info.Type = sampleType
	info.Name = channelName(info.Channel, info.IsInput)
	return nil
}

// CreateBuffers implements driver.Driver. Existing buffers are disposed of
// first.
func (d *Device) CreateBuffers(infos []driver.BufferInfo, bufferSize int, callbacks *driver.Callbacks) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return driver.NotPresent
	}
	if d.running {
		return driver.InvalidMode
	}
	if !validSize(bufferSize) {
		return driver.InvalidMode
	}
	if callbacks == nil || (callbacks.BufferSwitch == nil && callbacks.BufferSwitchTimeInfo == nil) {
		return driver.InvalidParameter
	}
	for _, info := range infos {
		if !validChannel(info.Channel, info.IsInput) {
			return driver.InvalidParameter
		}
	}

	buffers := make([]driver.BufferInfo, len(infos))
	for i := range infos {
		infos[i].Buffers[0] = make([]byte, bufferSize*sampleType.Size())
		infos[i].Buffers[1] = make([]byte, bufferSize*sampleType.Size())
		buffers[i] = infos[i]
	}
	d.buffers = buffers
	d.bufferSize = bufferSize
	d.callbacks = callbacks
	return nil
}

// DisposeBuffers implements driver.Driver.
func (d *Device) DisposeBuffers() error {
	d.mu.Lock()
	if d.buffers == nil {
		d.mu.Unlock()
		return driver.InvalidMode
	}
	done := d.halt()
	d.buffers = nil
	d.bufferSize = 0
	d.callbacks = nil
	d.mu.Unlock()

	wait(done)
	return nil
}

// ControlPanel implements driver.Driver. The device has no panel.
func (d *Device) ControlPanel() error {
	return driver.NotPresent
}

// OutputReady implements driver.Driver. Output is not latched early.
func (d *Device) OutputReady() error {
	return driver.NotPresent
}

// Destroy stops streaming and frees the buffers.
func (d *Device) Destroy() {
	d.mu.Lock()
	done := d.halt()
	d.buffers = nil
	d.callbacks = nil
	d.mu.Unlock()

	wait(done)
}

func (d *Device) canDoIoFormat(params any) driver.Error {
	f, ok := params.(*driver.IoFormat)
	if !ok || f.FormatType != driver.PCMFormat {
		return driver.InvalidParameter
	}
	return driver.Success
}

func (d *Device) getIoFormat(params any) driver.Error {
	f, ok := params.(*driver.IoFormat)
	if !ok {
		return driver.InvalidParameter
	}
	f.FormatType = driver.PCMFormat
	return driver.Success
}

func (d *Device) internalBufferSamples(params any) driver.Error {
	info, ok := params.(*driver.InternalBufferInfo)
	if !ok {
		return driver.InvalidParameter
	}
	info.InputSamples = 0
	info.OutputSamples = 0
	return driver.Success
}

func validChannel(channel int, isInput bool) bool {
	if isInput {
		return channel >= 0 && channel < numInputs
	}
	return channel >= 0 && channel < numOutputs
}

func validSize(size int) bool {
	return size >= Sizes.Min && size <= Sizes.Max && bits.OnesCount(uint(size)) == 1
}

func channelName(channel int, isInput bool) string {
	prefix := "Out "
	if isInput {
		prefix = "In "
	}
	return prefix + string(rune('1'+channel))
}
