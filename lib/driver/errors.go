package driver

import (
	"errors"
	"fmt"
)

// Error is a device status code. Device operations return it as an error;
// OK is never returned as a non-nil error.
type Error int32

const (
	// OK is returned by a successful call.
	OK Error = 0
	// Success is the distinguished success value of Future calls. For the
	// SetInstanceName selector it means the instance was bound and confirmed.
	Success Error = 0x3f4847a0
	// NotPresent means the hardware, module or entry is absent or unavailable.
	NotPresent Error = -1000
	// HWMalfunction means the hardware is malfunctioning.
	HWMalfunction Error = -999
	// InvalidParameter means an input parameter or selector is not supported.
	InvalidParameter Error = -998
	// InvalidMode means the hardware is in, or used in, a bad mode.
	InvalidMode Error = -997
	// SPNotAdvancing means the sample position was queried while the hardware is not running.
	SPNotAdvancing Error = -996
	// NoClock means the sample clock or rate cannot be determined.
	NoClock Error = -995
	// NoMemory means there is not enough memory, or a driver is already loaded.
	NoMemory Error = -994
)

// Error implements the error interface.
func (e Error) Error() string {
	switch e {
	case OK:
		return "ok"
	case Success:
		return "success"
	case NotPresent:
		return "not present"
	case HWMalfunction:
		return "hardware malfunction"
	case InvalidParameter:
		return "invalid parameter"
	case InvalidMode:
		return "invalid mode"
	case SPNotAdvancing:
		return "sample position not advancing"
	case NoClock:
		return "no clock"
	case NoMemory:
		return "no memory"
	default:
		return fmt.Sprintf("device error %d", int32(e))
	}
}

// IsSuccess reports whether e is OK or Success.
func (e Error) IsSuccess() bool {
	return e == OK || e == Success
}

// Err converts a status into an error, mapping both success values to nil.
func (e Error) Err() error {
	if e.IsSuccess() {
		return nil
	}
	return e
}

// Code extracts the device status carried by err. A nil error is OK; an
// error that carries no status is reported as NotPresent.
func Code(err error) Error {
	if err == nil {
		return OK
	}
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return NotPresent
}

// HResult is a status code of the object activation protocol. Failure codes
// have the high bit set.
type HResult uint32

const (
	SOK                     HResult = 0x00000000
	SFalse                  HResult = 0x00000001
	ENoInterface            HResult = 0x80004002
	EFail                   HResult = 0x80004005
	EOutOfMemory            HResult = 0x8007000E
	EInvalidArg             HResult = 0x80070057
	ClassENoAggregation     HResult = 0x80040110
	ClassEClassNotAvailable HResult = 0x80040111
	RegDBEClassNotReg       HResult = 0x80040154
	ErrorDevNotExist        HResult = 0x80070037
	COEErrorInDLL           HResult = 0x800401F9
)

// Failed reports whether h is a failure code.
func (h HResult) Failed() bool {
	return h&0x80000000 != 0
}

// Error implements the error interface.
func (h HResult) Error() string {
	switch h {
	case SOK:
		return "S_OK"
	case SFalse:
		return "S_FALSE"
	case ENoInterface:
		return "E_NOINTERFACE"
	case EFail:
		return "E_FAIL"
	case EOutOfMemory:
		return "E_OUTOFMEMORY"
	case EInvalidArg:
		return "E_INVALIDARG"
	case ClassENoAggregation:
		return "CLASS_E_NOAGGREGATION"
	case ClassEClassNotAvailable:
		return "CLASS_E_CLASSNOTAVAILABLE"
	case RegDBEClassNotReg:
		return "REGDB_E_CLASSNOTREG"
	case ErrorDevNotExist:
		return "ERROR_DEV_NOT_EXIST"
	case COEErrorInDLL:
		return "CO_E_ERRORINDLL"
	default:
		return fmt.Sprintf("HRESULT 0x%08X", uint32(h))
	}
}
