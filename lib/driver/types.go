package driver

// SampleType describes the sample format of a channel.
type SampleType int32

const (
	Int16MSB   SampleType = 0
	Int24MSB   SampleType = 1
	Int32MSB   SampleType = 2
	Float32MSB SampleType = 3
	Float64MSB SampleType = 4

	Int32MSB16 SampleType = 8
	Int32MSB18 SampleType = 9
	Int32MSB20 SampleType = 10
	Int32MSB24 SampleType = 11

	Int16LSB   SampleType = 16
	Int24LSB   SampleType = 17
	Int32LSB   SampleType = 18
	Float32LSB SampleType = 19
	Float64LSB SampleType = 20

	Int32LSB16 SampleType = 24
	Int32LSB18 SampleType = 25
	Int32LSB20 SampleType = 26
	Int32LSB24 SampleType = 27

	DSDInt8LSB1 SampleType = 32
	DSDInt8MSB1 SampleType = 33
	DSDInt8NER8 SampleType = 40
)

// Size returns the number of bytes one sample occupies, or 0 if unknown.
func (t SampleType) Size() int {
	switch t {
	case Int16MSB, Int16LSB:
		return 2
	case Int24MSB, Int24LSB:
		return 3
	case Int32MSB, Int32LSB, Float32MSB, Float32LSB,
		Int32MSB16, Int32MSB18, Int32MSB20, Int32MSB24,
		Int32LSB16, Int32LSB18, Int32LSB20, Int32LSB24:
		return 4
	case Float64MSB, Float64LSB:
		return 8
	case DSDInt8LSB1, DSDInt8MSB1, DSDInt8NER8:
		return 1
	default:
		return 0
	}
}

// String returns the name of the sample type.
func (t SampleType) String() string {
	switch t {
	case Int16MSB:
		return "Int16MSB"
	case Int24MSB:
		return "Int24MSB"
	case Int32MSB:
		return "Int32MSB"
	case Float32MSB:
		return "Float32MSB"
	case Float64MSB:
		return "Float64MSB"
	case Int32MSB16:
		return "Int32MSB16"
	case Int32MSB18:
		return "Int32MSB18"
	case Int32MSB20:
		return "Int32MSB20"
	case Int32MSB24:
		return "Int32MSB24"
	case Int16LSB:
		return "Int16LSB"
	case Int24LSB:
		return "Int24LSB"
	case Int32LSB:
		return "Int32LSB"
	case Float32LSB:
		return "Float32LSB"
	case Float64LSB:
		return "Float64LSB"
	case Int32LSB16:
		return "Int32LSB16"
	case Int32LSB18:
		return "Int32LSB18"
	case Int32LSB20:
		return "Int32LSB20"
	case Int32LSB24:
		return "Int32LSB24"
	case DSDInt8LSB1:
		return "DSDInt8LSB1"
	case DSDInt8MSB1:
		return "DSDInt8MSB1"
	case DSDInt8NER8:
		return "DSDInt8NER8"
	default:
		return "Unknown"
	}
}

// DriverInfo is filled by a host-side Init wrapper.
type DriverInfo struct {
	ASIOVersion   int
	DriverVersion int
	Name          string
	ErrorMessage  string
	SysRef        any
}

// ClockSource describes one selectable clock.
type ClockSource struct {
	Index             int
	AssociatedChannel int
	AssociatedGroup   int
	IsCurrent         bool
	Name              string
}

// ChannelInfo describes one channel. Channel and IsInput are inputs to
// Driver.ChannelInfo, the remaining fields are filled in by the driver.
type ChannelInfo struct {
	Channel  int
	IsInput  bool
	IsActive bool
	Group    int
	Type     SampleType
	Name     string
}

// BufferInfo requests a double buffer for one channel. IsInput and Channel
// are set by the host; Buffers is filled by CreateBuffers.
type BufferInfo struct {
	IsInput bool
	Channel int
	Buffers [2][]byte
}

// BufferSizes is the buffer size negotiation range in sample frames.
// A Granularity of -1 means sizes are powers of two.
type BufferSizes struct {
	Min         int
	Max         int
	Preferred   int
	Granularity int
}

// TimeInfoFlags qualifies the fields of TimeInfo.
type TimeInfoFlags uint32

const (
	SystemTimeValid TimeInfoFlags = 1 << iota
	SamplePositionValid
	SampleRateValid
	SpeedValid
	SampleRateChanged
	ClockSourceChanged
)

// TimeInfo carries the timing of one buffer switch.
type TimeInfo struct {
	Speed          float64
	SystemTime     int64
	SamplePosition int64
	SampleRate     float64
	Flags          TimeInfoFlags
}

// TimeCodeFlags qualifies TimeCode.
type TimeCodeFlags uint32

const (
	TcValid TimeCodeFlags = 1 << iota
	TcRunning
	TcReverse
	TcOnspeed
	TcStill

	TcSpeedValid TimeCodeFlags = 1 << 8
)

// TimeCode is optional time code information.
type TimeCode struct {
	Speed   float64
	Samples int64
	Flags   TimeCodeFlags
}

// Time is passed to BufferSwitchTimeInfo.
type Time struct {
	Info     TimeInfo
	TimeCode TimeCode
}

// MessageSelector selects the meaning of a Callbacks.Message call.
type MessageSelector int

const (
	SelectorSupported MessageSelector = iota + 1
	EngineVersion
	ResetRequest
	BufferSizeChange
	ResyncRequest
	LatenciesChanged
	SupportsTimeInfo
	SupportsTimeCode
	MMCCommand
	SupportsInputMonitor
	SupportsInputGain
	SupportsInputMeter
	SupportsOutputGain
	SupportsOutputMeter
	Overload
)

// Callbacks are supplied by the host in CreateBuffers. They are invoked on
// a goroutine owned by the driver.
type Callbacks struct {
	BufferSwitch         func(index int, directProcess bool)
	SampleRateDidChange  func(rate float64)
	Message              func(selector MessageSelector, value int, message any, opt *float64) int
	BufferSwitchTimeInfo func(t *Time, index int, directProcess bool) *Time
}

// Selector selects the operation of a Future call.
type Selector int32

const (
	EnableTimeCodeRead Selector = iota + 1
	DisableTimeCodeRead
	SetInputMonitor
	Transport
	SetInputGain
	GetInputMeter
	SetOutputGain
	GetOutputMeter
	CanInputMonitor
	CanTimeInfo
	CanTimeCode
	CanTransport
	CanInputGain
	CanInputMeter
	CanOutputGain
	CanOutputMeter
	OptionalOne

	SetIoFormat                Selector = 0x23111961
	GetIoFormat                Selector = 0x23111983
	CanDoIoFormat              Selector = 0x23112004
	CanReportOverload          Selector = 0x24042012
	GetInternalBufferSamples   Selector = 0x25042012

	// SetInstanceName binds a handle to a named instance. The parameter is
	// the instance name as a string.
	SetInstanceName Selector = 0x7F000001
)

// InputMonitor is the parameter of SetInputMonitor.
type InputMonitor struct {
	Input  int
	Output int
	Gain   int
	State  bool
	Pan    int
}

// ChannelControls is the parameter of the gain and meter selectors.
type ChannelControls struct {
	Channel int
	IsInput bool
	Gain    int
	Meter   int
}

// IoFormatType selects PCM or DSD operation.
type IoFormatType int32

const (
	FormatInvalid IoFormatType = -1
	PCMFormat     IoFormatType = 0
	DSDFormat     IoFormatType = 1
)

// IoFormat is the parameter of the I/O format selectors.
type IoFormat struct {
	FormatType IoFormatType
}

// InternalBufferInfo is the parameter of GetInternalBufferSamples.
type InternalBufferInfo struct {
	InputSamples  int
	OutputSamples int
}
