package probe

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/module"
	"github.com/snowmerak/asio.go/lib/module/nulldriver"
	"github.com/snowmerak/asio.go/lib/registry"
)

func nullReport(t *testing.T) *Report {
	t.Helper()
	store := registry.NewFileStore(t.TempDir())
	require.NoError(t, store.Register("Null Device", "/lib/null.so", ""))
	d, err := nulldriver.NewScaffold(&module.UseCounter{}, module.WithRegistry(store)).InstantiateDriver()
	require.NoError(t, err)
	t.Cleanup(func() { d.Release() })
	require.Equal(t, driver.Success, d.Future(driver.SetInstanceName, "Null Device"))
	require.True(t, d.Init(nil))

	r, err := Run(d)
	require.NoError(t, err)
	return r
}

func TestRun(t *testing.T) {
	r := nullReport(t)

	assert.Equal(t, "Null Device", r.Name)
	assert.Equal(t, nulldriver.Version, r.Version)
	assert.Equal(t, 2, r.Inputs)
	assert.Equal(t, 2, r.Outputs)
	assert.Equal(t, Buffer{Min: 64, Max: 4096, Preferred: 256, Granularity: -1}, r.Buffer)
	assert.Equal(t, 48000.0, r.SampleRate)
	assert.Equal(t, []float64{44100, 48000, 88200, 96000}, r.SupportedRates)
	require.Len(t, r.Clocks, 1)
	assert.True(t, r.Clocks[0].Current)
	require.Len(t, r.Channels, 4)
	assert.Equal(t, Channel{Index: 0, Input: true, Name: "In 1", Type: "Float32LSB"}, r.Channels[0])
	assert.Equal(t, "Out 2", r.Channels[3].Name)
}

func TestRun_Uninitialized(t *testing.T) {
	d, err := nulldriver.NewScaffold(nil).InstantiateDriver()
	require.NoError(t, err)
	defer d.Release()

	_, err = Run(d)
	assert.ErrorIs(t, err, driver.NotPresent)
}

func TestEncode_Text(t *testing.T) {
	data, err := Encode(nullReport(t), FormatText)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "Null Device (version 1)")
	assert.Contains(t, out, "44100, 48000, 88200, 96000")
	assert.Contains(t, out, "Internal *")
	assert.Contains(t, out, "Float32LSB")
}

func TestEncode_JSON(t *testing.T) {
	data, err := Encode(nullReport(t), "JSON")
	require.NoError(t, err)

	var s structpb.Struct
	require.NoError(t, protojson.Unmarshal(data, &s))
	m := s.AsMap()
	assert.Equal(t, "Null Device", m["name"])
	assert.Equal(t, 2.0, m["inputs"])
	assert.Len(t, m["channels"], 4)
	assert.Equal(t, -1.0, m["buffer"].(map[string]any)["granularity"])
}

func TestEncode_Proto(t *testing.T) {
	r := nullReport(t)
	data, err := Encode(r, FormatProto)
	require.NoError(t, err)

	var s structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &s))
	want, err := Struct(r)
	require.NoError(t, err)
	assert.True(t, proto.Equal(want, &s))
}

func TestEncode_YAML(t *testing.T) {
	r := nullReport(t)
	data, err := Encode(r, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sample_rate: 48000")

	var back Report
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, *r, back)
}

func TestEncode_CBOR(t *testing.T) {
	r := nullReport(t)
	a, err := Encode(r, FormatCBOR)
	require.NoError(t, err)
	b, err := Encode(r, FormatCBOR)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))

	var back Report
	require.NoError(t, cbor.Unmarshal(a, &back))
	assert.Equal(t, *r, back)
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := Encode(&Report{}, "xml")
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Write(&sb, nullReport(t), FormatYAML))
	assert.True(t, strings.HasPrefix(sb.String(), "name: Null Device"))
}
