// Package probe queries a driver for everything a host needs to know before
// streaming and renders the result in several formats.
package probe

import (
	"errors"
	"fmt"

	"github.com/snowmerak/asio.go/lib/driver"
)

// StandardRates are the sample rates Run checks for support.
var StandardRates = []float64{
	8000, 11025, 16000, 22050, 32000, 44100, 48000,
	88200, 96000, 176400, 192000, 352800, 384000,
}

// Report describes one initialized driver.
type Report struct {
	Name           string    `json:"name" yaml:"name" cbor:"name"`
	Version        int       `json:"version" yaml:"version" cbor:"version"`
	Inputs         int       `json:"inputs" yaml:"inputs" cbor:"inputs"`
	Outputs        int       `json:"outputs" yaml:"outputs" cbor:"outputs"`
	InputLatency   int       `json:"input_latency" yaml:"input_latency" cbor:"input_latency"`
	OutputLatency  int       `json:"output_latency" yaml:"output_latency" cbor:"output_latency"`
	Buffer         Buffer    `json:"buffer" yaml:"buffer" cbor:"buffer"`
	SampleRate     float64   `json:"sample_rate" yaml:"sample_rate" cbor:"sample_rate"`
	SupportedRates []float64 `json:"supported_rates" yaml:"supported_rates" cbor:"supported_rates"`
	Clocks         []Clock   `json:"clocks" yaml:"clocks" cbor:"clocks"`
	Channels       []Channel `json:"channels" yaml:"channels" cbor:"channels"`
}

// Buffer is the buffer size range in sample frames.
type Buffer struct {
	Min         int `json:"min" yaml:"min" cbor:"min"`
	Max         int `json:"max" yaml:"max" cbor:"max"`
	Preferred   int `json:"preferred" yaml:"preferred" cbor:"preferred"`
	Granularity int `json:"granularity" yaml:"granularity" cbor:"granularity"`
}

// Clock is one clock source.
type Clock struct {
	Index   int    `json:"index" yaml:"index" cbor:"index"`
	Name    string `json:"name" yaml:"name" cbor:"name"`
	Current bool   `json:"current" yaml:"current" cbor:"current"`
}

// Channel is one input or output channel.
type Channel struct {
	Index int    `json:"index" yaml:"index" cbor:"index"`
	Input bool   `json:"input" yaml:"input" cbor:"input"`
	Name  string `json:"name" yaml:"name" cbor:"name"`
	Type  string `json:"type" yaml:"type" cbor:"type"`
	Group int    `json:"group" yaml:"group" cbor:"group"`
}

// Run queries d, which must be initialized.
func Run(d driver.Driver) (*Report, error) {
	r := &Report{
		Name:    d.DriverName(),
		Version: d.DriverVersion(),
	}

	var err error
	if r.Inputs, r.Outputs, err = d.Channels(); err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}
	if r.InputLatency, r.OutputLatency, err = d.Latencies(); err != nil {
		return nil, fmt.Errorf("latencies: %w", err)
	}

	sizes, err := d.BufferSize()
	if err != nil {
		return nil, fmt.Errorf("buffer size: %w", err)
	}
	r.Buffer = Buffer{Min: sizes.Min, Max: sizes.Max, Preferred: sizes.Preferred, Granularity: sizes.Granularity}

	if r.SampleRate, err = d.SampleRate(); err != nil && !errors.Is(err, driver.NoClock) {
		return nil, fmt.Errorf("sample rate: %w", err)
	}
	for _, rate := range StandardRates {
		if d.CanSampleRate(rate) == nil {
			r.SupportedRates = append(r.SupportedRates, rate)
		}
	}

	clocks, err := d.ClockSources()
	if err != nil {
		return nil, fmt.Errorf("clock sources: %w", err)
	}
	for _, c := range clocks {
		r.Clocks = append(r.Clocks, Clock{Index: c.Index, Name: c.Name, Current: c.IsCurrent})
	}

	for _, input := range []bool{true, false} {
		n := r.Outputs
		if input {
			n = r.Inputs
		}
		for i := 0; i < n; i++ {
			info := driver.ChannelInfo{Channel: i, IsInput: input}
			if err := d.ChannelInfo(&info); err != nil {
				return nil, fmt.Errorf("channel info %d: %w", i, err)
			}
			r.Channels = append(r.Channels, Channel{
				Index: i,
				Input: input,
				Name:  info.Name,
				Type:  info.Type.String(),
				Group: info.Group,
			})
		}
	}
	return r, nil
}
