package nulldriver

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/module"
	"github.com/snowmerak/asio.go/lib/registry"
)

// registered returns a registry holding every instance of the module.
func registered(t *testing.T) module.Option {
	t.Helper()
	s := registry.NewFileStore(t.TempDir())
	for _, inst := range Instances {
		require.NoError(t, s.Register(inst.Name, "/lib/null.so", inst.Description))
	}
	return module.WithRegistry(s)
}

func newDevice(t *testing.T) driver.Driver {
	t.Helper()
	d, err := NewScaffold(&module.UseCounter{}, registered(t)).InstantiateDriver()
	require.NoError(t, err)
	t.Cleanup(func() { d.Release() })
	require.Equal(t, driver.Success, d.Future(driver.SetInstanceName, Instances[0].Name))
	require.True(t, d.Init(nil))
	return d
}

func allChannels() []driver.BufferInfo {
	return []driver.BufferInfo{
		{IsInput: true, Channel: 0},
		{IsInput: true, Channel: 1},
		{IsInput: false, Channel: 0},
		{IsInput: false, Channel: 1},
	}
}

func TestDevice_Describe(t *testing.T) {
	d := newDevice(t)

	assert.Equal(t, "Null Device", d.DriverName())
	assert.Equal(t, Version, d.DriverVersion())

	in, out, err := d.Channels()
	require.NoError(t, err)
	assert.Equal(t, 2, in)
	assert.Equal(t, 2, out)

	sizes, err := d.BufferSize()
	require.NoError(t, err)
	assert.Equal(t, Sizes, sizes)

	rate, err := d.SampleRate()
	require.NoError(t, err)
	assert.Equal(t, 48000.0, rate)

	clocks, err := d.ClockSources()
	require.NoError(t, err)
	require.Len(t, clocks, 1)
	assert.True(t, clocks[0].IsCurrent)
	assert.NoError(t, d.SetClockSource(0))
	assert.ErrorIs(t, d.SetClockSource(1), driver.InvalidParameter)

	assert.ErrorIs(t, d.ControlPanel(), driver.NotPresent)
	assert.ErrorIs(t, d.OutputReady(), driver.NotPresent)
}

func TestDevice_NotInitialized(t *testing.T) {
	d, err := NewScaffold(nil).InstantiateDriver()
	require.NoError(t, err)
	defer d.Release()

	_, _, err = d.Channels()
	assert.ErrorIs(t, err, driver.NotPresent)
	assert.ErrorIs(t, d.Start(), driver.NotPresent)
}

func TestDevice_SampleRates(t *testing.T) {
	d := newDevice(t)

	for _, r := range Rates {
		assert.NoError(t, d.CanSampleRate(r))
	}
	assert.ErrorIs(t, d.CanSampleRate(22050), driver.NoClock)
	assert.ErrorIs(t, d.SetSampleRate(22050), driver.NoClock)

	require.NoError(t, d.SetSampleRate(96000))
	rate, err := d.SampleRate()
	require.NoError(t, err)
	assert.Equal(t, 96000.0, rate)
}

func TestDevice_CreateBuffersValidation(t *testing.T) {
	d := newDevice(t)
	cb := &driver.Callbacks{BufferSwitch: func(int, bool) {}}

	assert.ErrorIs(t, d.CreateBuffers(allChannels(), 100, cb), driver.InvalidMode)
	assert.ErrorIs(t, d.CreateBuffers(allChannels(), 8192, cb), driver.InvalidMode)
	assert.ErrorIs(t, d.CreateBuffers(allChannels(), 256, nil), driver.InvalidParameter)
	assert.ErrorIs(t, d.CreateBuffers([]driver.BufferInfo{{IsInput: true, Channel: 2}}, 256, cb), driver.InvalidParameter)
	assert.ErrorIs(t, d.Start(), driver.InvalidMode)
	assert.ErrorIs(t, d.DisposeBuffers(), driver.InvalidMode)

	infos := allChannels()
	require.NoError(t, d.CreateBuffers(infos, 256, cb))
	for _, info := range infos {
		assert.Len(t, info.Buffers[0], 256*4)
		assert.Len(t, info.Buffers[1], 256*4)
	}

	ch := driver.ChannelInfo{Channel: 1, IsInput: false}
	require.NoError(t, d.ChannelInfo(&ch))
	assert.True(t, ch.IsActive)
	assert.Equal(t, driver.Float32LSB, ch.Type)
	assert.Equal(t, "Out 2", ch.Name)

	in, out, err := d.Latencies()
	require.NoError(t, err)
	assert.Equal(t, 256, in)
	assert.Equal(t, 256, out)

	require.NoError(t, d.DisposeBuffers())
	require.NoError(t, d.ChannelInfo(&ch))
	assert.False(t, ch.IsActive)
}

func TestDevice_Streaming(t *testing.T) {
	d := newDevice(t)

	var switches atomic.Int32
	var lastPos atomic.Int64
	cb := &driver.Callbacks{
		BufferSwitchTimeInfo: func(tm *driver.Time, index int, direct bool) *driver.Time {
			switches.Add(1)
			lastPos.Store(tm.Info.SamplePosition)
			return nil
		},
	}
	require.NoError(t, d.CreateBuffers(allChannels(), 64, cb))

	_, _, err := d.SamplePosition()
	assert.ErrorIs(t, err, driver.SPNotAdvancing)

	require.NoError(t, d.Start())
	assert.Eventually(t, func() bool { return switches.Load() >= 3 }, 2*time.Second, time.Millisecond)

	pos, ts, err := d.SamplePosition()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pos, int64(3*64))
	assert.NotZero(t, ts)
	assert.ErrorIs(t, d.SetSampleRate(44100), driver.InvalidMode)

	require.NoError(t, d.Stop())
	stopped := switches.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, switches.Load())
	assert.Equal(t, int64(0), lastPos.Load()%64)

	require.NoError(t, d.DisposeBuffers())
}

func TestDevice_ReleaseStopsStreaming(t *testing.T) {
	counter := &module.UseCounter{}
	d, err := NewScaffold(counter, registered(t)).InstantiateDriver()
	require.NoError(t, err)
	require.Equal(t, driver.Success, d.Future(driver.SetInstanceName, Instances[1].Name))
	require.True(t, d.Init(nil))

	var switches atomic.Int32
	cb := &driver.Callbacks{BufferSwitch: func(int, bool) { switches.Add(1) }}
	require.NoError(t, d.CreateBuffers(allChannels(), 64, cb))
	require.NoError(t, d.Start())
	assert.Eventually(t, func() bool { return switches.Load() > 0 }, 2*time.Second, time.Millisecond)

	assert.Equal(t, uint32(0), d.Release())
	assert.Equal(t, int64(0), counter.Count())
	stopped := switches.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, switches.Load())
}

func TestDevice_FutureSelectors(t *testing.T) {
	d := newDevice(t)

	assert.Equal(t, driver.Success, d.Future(driver.CanTimeInfo, nil))

	f := &driver.IoFormat{FormatType: driver.FormatInvalid}
	assert.Equal(t, driver.Success, d.Future(driver.GetIoFormat, f))
	assert.Equal(t, driver.PCMFormat, f.FormatType)
	assert.Equal(t, driver.Success, d.Future(driver.CanDoIoFormat, &driver.IoFormat{FormatType: driver.PCMFormat}))
	assert.Equal(t, driver.InvalidParameter, d.Future(driver.CanDoIoFormat, &driver.IoFormat{FormatType: driver.DSDFormat}))

	info := &driver.InternalBufferInfo{InputSamples: -1}
	assert.Equal(t, driver.Success, d.Future(driver.GetInternalBufferSamples, info))
	assert.Equal(t, 0, info.InputSamples)

	assert.Equal(t, driver.InvalidParameter, d.Future(driver.Transport, nil))
}

// returnsWithin fails the test if f does not return in time.
func returnsWithin(t *testing.T, limit time.Duration, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		f()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(limit):
		t.Fatalf("call did not return within %v", limit)
	}
}

func TestDevice_CallbacksReenterDriver(t *testing.T) {
	d := newDevice(t)

	var switches atomic.Int32
	var failures atomic.Int32
	cb := &driver.Callbacks{BufferSwitch: func(int, bool) {
		time.Sleep(5 * time.Millisecond)
		if _, _, err := d.SamplePosition(); err != nil && !errors.Is(err, driver.SPNotAdvancing) {
			failures.Add(1)
		}
		ch := driver.ChannelInfo{Channel: 0, IsInput: true}
		if err := d.ChannelInfo(&ch); err != nil {
			failures.Add(1)
		}
		switches.Add(1)
	}}
	require.NoError(t, d.CreateBuffers(allChannels(), 64, cb))
	require.NoError(t, d.Start())
	assert.Eventually(t, func() bool { return switches.Load() >= 3 }, 2*time.Second, time.Millisecond)

	returnsWithin(t, 2*time.Second, func() { assert.NoError(t, d.Stop()) })
	assert.Zero(t, failures.Load())

	require.NoError(t, d.Start())
	assert.Eventually(t, func() bool { return switches.Load() >= 5 }, 2*time.Second, time.Millisecond)
	returnsWithin(t, 2*time.Second, func() { assert.NoError(t, d.DisposeBuffers()) })
}

func TestDevice_ReleaseWaitsForCallback(t *testing.T) {
	counter := &module.UseCounter{}
	d, err := NewScaffold(counter, registered(t)).InstantiateDriver()
	require.NoError(t, err)
	require.Equal(t, driver.Success, d.Future(driver.SetInstanceName, Instances[0].Name))
	require.True(t, d.Init(nil))

	var entered, inFlight atomic.Bool
	cb := &driver.Callbacks{BufferSwitch: func(int, bool) {
		inFlight.Store(true)
		entered.Store(true)
		time.Sleep(10 * time.Millisecond)
		_, _, _ = d.SamplePosition()
		inFlight.Store(false)
	}}
	require.NoError(t, d.CreateBuffers(allChannels(), 64, cb))
	require.NoError(t, d.Start())
	assert.Eventually(t, entered.Load, 2*time.Second, time.Millisecond)

	returnsWithin(t, 2*time.Second, func() { assert.Equal(t, uint32(0), d.Release()) })
	assert.False(t, inFlight.Load())
	assert.Equal(t, int64(0), counter.Count())
}

func TestDevice_TimeInfoNegotiation(t *testing.T) {
	tests := []struct {
		name     string
		supports int
		timeInfo bool
	}{
		{"host declines", 0, false},
		{"host accepts", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDevice(t)

			var plain, timed atomic.Int32
			cb := &driver.Callbacks{
				BufferSwitch: func(int, bool) { plain.Add(1) },
				BufferSwitchTimeInfo: func(tm *driver.Time, index int, direct bool) *driver.Time {
					timed.Add(1)
					return nil
				},
				Message: func(sel driver.MessageSelector, value int, _ any, _ *float64) int {
					switch sel {
					case driver.SelectorSupported:
						if driver.MessageSelector(value) == driver.SupportsTimeInfo {
							return 1
						}
					case driver.SupportsTimeInfo:
						return tt.supports
					}
					return 0
				},
			}
			require.NoError(t, d.CreateBuffers(allChannels(), 64, cb))
			require.NoError(t, d.Start())
			assert.Eventually(t, func() bool { return plain.Load()+timed.Load() >= 2 }, 2*time.Second, time.Millisecond)
			require.NoError(t, d.Stop())

			if tt.timeInfo {
				assert.Zero(t, plain.Load())
				assert.Positive(t, timed.Load())
			} else {
				assert.Zero(t, timed.Load())
				assert.Positive(t, plain.Load())
			}
		})
	}
}
