package probe

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCBOR  Format = "cbor"
	FormatProto Format = "proto"
)

// Encoder renders a report.
type Encoder func(r *Report) ([]byte, error)

var cborMode cbor.EncMode

func init() {
	var err error
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}
	cborMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create report CBOR encoder mode: %v", err))
	}
}

var encoders = map[Format]Encoder{
	FormatText:  encodeText,
	FormatJSON:  encodeJSON,
	FormatYAML:  encodeYAML,
	FormatCBOR:  encodeCBOR,
	FormatProto: encodeProto,
}

func encodeYAML(r *Report) ([]byte, error) {
	return yaml.Marshal(r)
}

func encodeCBOR(r *Report) ([]byte, error) {
	return cborMode.Marshal(r)
}

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatCBOR, FormatProto}
}

// Encode renders r in format.
func Encode(r *Report, format Format) ([]byte, error) {
	enc, ok := encoders[Format(strings.ToLower(string(format)))]
	if !ok {
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	return enc(r)
}

// Write renders r in format to w.
func Write(w io.Writer, r *Report, format Format) error {
	data, err := Encode(r, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Struct converts r to a protobuf Struct.
func Struct(r *Report) (*structpb.Struct, error) {
	rates := make([]any, len(r.SupportedRates))
	for i, rate := range r.SupportedRates {
		rates[i] = rate
	}
	clocks := make([]any, len(r.Clocks))
	for i, c := range r.Clocks {
		clocks[i] = map[string]any{"index": c.Index, "name": c.Name, "current": c.Current}
	}
	channels := make([]any, len(r.Channels))
	for i, c := range r.Channels {
		channels[i] = map[string]any{
			"index": c.Index,
			"input": c.Input,
			"name":  c.Name,
			"type":  c.Type,
			"group": c.Group,
		}
	}

	return structpb.NewStruct(map[string]any{
		"name":           r.Name,
		"version":        r.Version,
		"inputs":         r.Inputs,
		"outputs":        r.Outputs,
		"input_latency":  r.InputLatency,
		"output_latency": r.OutputLatency,
		"buffer": map[string]any{
			"min":         r.Buffer.Min,
			"max":         r.Buffer.Max,
			"preferred":   r.Buffer.Preferred,
			"granularity": r.Buffer.Granularity,
		},
		"sample_rate":     r.SampleRate,
		"supported_rates": rates,
		"clocks":          clocks,
		"channels":        channels,
	})
}

func encodeJSON(r *Report) ([]byte, error) {
	s, err := Struct(r)
	if err != nil {
		return nil, fmt.Errorf("failed to convert report: %w", err)
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func encodeProto(r *Report) ([]byte, error) {
	s, err := Struct(r)
	if err != nil {
		return nil, fmt.Errorf("failed to convert report: %w", err)
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func encodeText(r *Report) ([]byte, error) {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Driver:\t%s (version %d)\n", r.Name, r.Version)
	fmt.Fprintf(tw, "Channels:\t%d in, %d out\n", r.Inputs, r.Outputs)
	fmt.Fprintf(tw, "Latency:\t%d in, %d out\n", r.InputLatency, r.OutputLatency)
	fmt.Fprintf(tw, "Buffer:\tmin %d, max %d, preferred %d, granularity %d\n",
		r.Buffer.Min, r.Buffer.Max, r.Buffer.Preferred, r.Buffer.Granularity)
	fmt.Fprintf(tw, "Sample rate:\t%g\n", r.SampleRate)

	rates := make([]string, len(r.SupportedRates))
	for i, rate := range r.SupportedRates {
		rates[i] = fmt.Sprintf("%g", rate)
	}
	fmt.Fprintf(tw, "Supported rates:\t%s\n", strings.Join(rates, ", "))

	for _, c := range r.Clocks {
		mark := ""
		if c.Current {
			mark = " *"
		}
		fmt.Fprintf(tw, "Clock %d:\t%s%s\n", c.Index, c.Name, mark)
	}
	for _, c := range r.Channels {
		dir := "Output"
		if c.Input {
			dir = "Input"
		}
		fmt.Fprintf(tw, "%s %d:\t%s\t%s\tgroup %d\n", dir, c.Index, c.Name, c.Type, c.Group)
	}

	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
