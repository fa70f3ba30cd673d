// Package driver defines the operation table every audio device module
// implements, together with its status codes and parameter types.
package driver

import "github.com/snowmerak/asio.go/lib/guid"

// Well-known interface identities of the activation protocol.
var (
	IIDUnknown      = guid.MustParse("{00000000-0000-0000-c000-000000000046}")
	IIDClassFactory = guid.MustParse("{00000001-0000-0000-c000-000000000046}")
)

// Driver is the operation table of one device instance. The method order
// matches Slots. Calls are synchronous and must not be made concurrently on
// the same instance; streaming callbacks arrive on a goroutine owned by the
// driver.
type Driver interface {
	// QueryInterface returns the instance with an added reference. A nil
	// iid, or an identity the instance answers to, succeeds.
	QueryInterface(iid *guid.GUID) (Driver, error)
	// AddRef adds a reference and returns the new count.
	AddRef() uint32
	// Release drops a reference and returns the new count. The instance is
	// destroyed when the count reaches zero.
	Release() uint32

	// Init prepares the device. On false, ErrorMessage describes why.
	Init(sysRef any) bool
	DriverName() string
	DriverVersion() int
	ErrorMessage() string

	Start() error
	Stop() error

	Channels() (inputs, outputs int, err error)
	Latencies() (input, output int, err error)
	BufferSize() (BufferSizes, error)

	CanSampleRate(rate float64) error
	SampleRate() (float64, error)
	SetSampleRate(rate float64) error

	ClockSources() ([]ClockSource, error)
	SetClockSource(index int) error
	// SamplePosition returns the sample position and the system time in
	// nanoseconds at which it was sampled.
	SamplePosition() (samples, timestamp int64, err error)
	// ChannelInfo completes info for info.Channel and info.IsInput.
	ChannelInfo(info *ChannelInfo) error

	CreateBuffers(infos []BufferInfo, bufferSize int, callbacks *Callbacks) error
	DisposeBuffers() error
	ControlPanel() error

	// Future runs an extension selector. OK and Success are distinct
	// outcomes, so the raw status is returned.
	Future(selector Selector, params any) Error
	OutputReady() error
}

// Slots lists the external operation table in order. Index i names the
// method that occupies slot i of the binary table.
var Slots = [...]string{
	"queryInterface",
	"addRef",
	"release",
	"init",
	"getDriverName",
	"getDriverVersion",
	"getErrorMessage",
	"start",
	"stop",
	"getChannels",
	"getLatencies",
	"getBufferSize",
	"canSampleRate",
	"getSampleRate",
	"setSampleRate",
	"getClockSources",
	"setClockSource",
	"getSamplePosition",
	"getChannelInfo",
	"createBuffers",
	"disposeBuffers",
	"controlPanel",
	"future",
	"outputReady",
}

// SlotIndex returns the position of the named slot, or -1.
func SlotIndex(name string) int {
	for i, s := range Slots {
		if s == name {
			return i
		}
	}
	return -1
}

// ClassFactory constructs device instances for one class identity.
type ClassFactory interface {
	AddRef() uint32
	Release() uint32
	// CreateInstance constructs an instance answering to iid. A non-nil
	// outer is rejected with ClassENoAggregation.
	CreateInstance(outer any, iid guid.GUID) (Driver, error)
	LockServer(lock bool) error
}
