package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundctl/audioprobe/internal/catalog"
)

func micSpeakerSnapshot() *catalog.Snapshot {
	return &catalog.Snapshot{
		Devices: []catalog.Device{
			{Index: 0, Name: "Mic", HostAPIID: 0, MaxInputChannels: 2, DefaultSampleRate: 48000},
			{Index: 1, Name: "Speaker", HostAPIID: 0, MaxOutputChannels: 2, DefaultSampleRate: 44100},
		},
		HostAPIs:      map[int]string{0: "CoreAudio"},
		DefaultInput:  0,
		DefaultOutput: 1,
	}
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SortMode
		wantErr bool
	}{
		{"", SortIndex, false},
		{"index", SortIndex, false},
		{"name", SortName, false},
		{"in", SortIn, false},
		{"out", SortOut, false},
		{"channels", SortIndex, true},
	}
	for _, tt := range tests {
		got, err := ParseSortMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSortedByNameCaseInsensitiveStable(t *testing.T) {
	devs := []catalog.Device{
		{Index: 0, Name: "zeta"},
		{Index: 1, Name: "Alpha"},
		{Index: 2, Name: "alpha"},
		{Index: 3, Name: "Beta"},
	}

	got := Sorted(devs, SortName)

	// "Alpha" and "alpha" compare equal; original order preserved.
	assert.Equal(t, []int{1, 2, 3, 0}, indices(got))
	// Input untouched.
	assert.Equal(t, 0, devs[0].Index)
}

func TestSortedByChannelsDescending(t *testing.T) {
	devs := []catalog.Device{
		{Index: 0, MaxInputChannels: 1, MaxOutputChannels: 2},
		{Index: 1, MaxInputChannels: 8, MaxOutputChannels: 0},
		{Index: 2, MaxInputChannels: 2, MaxOutputChannels: 6},
	}

	assert.Equal(t, []int{1, 2, 0}, indices(Sorted(devs, SortIn)))
	assert.Equal(t, []int{2, 0, 1}, indices(Sorted(devs, SortOut)))
}

func TestSortedIndexIsIdentity(t *testing.T) {
	devs := []catalog.Device{{Index: 2}, {Index: 0}, {Index: 1}}
	assert.Equal(t, []int{2, 0, 1}, indices(Sorted(devs, SortIndex)))
}

func TestLine(t *testing.T) {
	snap := micSpeakerSnapshot()

	line := Line(&snap.Devices[0], snap, false)
	assert.Equal(t, "  [0] Mic - CoreAudio | in:2 out:0 (default input)", line)

	line = Line(&snap.Devices[1], snap, true)
	assert.Equal(t, "  [1] Speaker - CoreAudio | in:0 out:2 | sr: 44100 (default output)", line)
}

func TestLineUnknownSampleRateAndHostAPI(t *testing.T) {
	snap := &catalog.Snapshot{
		Devices:       []catalog.Device{{Index: 3, Name: "Loop", HostAPIID: 9, MaxInputChannels: 1, MaxOutputChannels: 1}},
		HostAPIs:      map[int]string{},
		DefaultInput:  3,
		DefaultOutput: 3,
	}

	line := Line(&snap.Devices[0], snap, true)
	assert.Equal(t, "  [3] Loop - API#9 | in:1 out:1 | sr: N/A (default input, default output)", line)
}

func TestJSONListing(t *testing.T) {
	snap := micSpeakerSnapshot()
	snap.Devices = append(snap.Devices, catalog.Device{Index: 2, Name: "Null", HostAPIID: 0})

	data, err := JSON(snap, SortIndex)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 3)

	assert.Equal(t, float64(0), got[0]["index"])
	assert.Equal(t, "Mic", got[0]["name"])
	assert.Equal(t, "CoreAudio", got[0]["hostapi"])
	assert.Equal(t, float64(2), got[0]["max_input_channels"])
	assert.Equal(t, float64(0), got[0]["max_output_channels"])
	assert.Equal(t, float64(48000), got[0]["default_samplerate"])

	// Default flags true for exactly the default indices.
	assert.Equal(t, true, got[0]["is_default_input"])
	assert.Equal(t, false, got[0]["is_default_output"])
	assert.Equal(t, false, got[1]["is_default_input"])
	assert.Equal(t, true, got[1]["is_default_output"])
	assert.Equal(t, false, got[2]["is_default_input"])
	assert.Equal(t, false, got[2]["is_default_output"])

	// Absent sample rate is an explicit null.
	v, ok := got[2]["default_samplerate"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestWriteListingSections(t *testing.T) {
	snap := micSpeakerSnapshot()

	var buf bytes.Buffer
	WriteListing(&buf, snap, SortIndex, false)
	out := buf.String()

	inputSection := out[:strings.Index(out, "Audio output devices:")]
	outputSection := out[strings.Index(out, "Audio output devices:"):]

	// Mic only under inputs, Speaker only under outputs.
	assert.Contains(t, inputSection, "[0] Mic")
	assert.NotContains(t, inputSection, "Speaker")
	assert.Contains(t, inputSection, "(default input)")

	assert.Contains(t, outputSection, "[1] Speaker")
	assert.NotContains(t, outputSection, "Mic")
	assert.Contains(t, outputSection, "(default output)")
}

func indices(devs []catalog.Device) []int {
	out := make([]int, len(devs))
	for i, d := range devs {
		out[i] = d.Index
	}
	return out
}
