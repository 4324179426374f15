package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Devices: []Device{
			{Index: 0, Name: "Mic", HostAPIID: 0, MaxInputChannels: 2, DefaultSampleRate: 48000},
			{Index: 1, Name: "Speaker", HostAPIID: 0, MaxOutputChannels: 2, DefaultSampleRate: 44100},
			{Index: 2, Name: "Null", HostAPIID: 3},
		},
		HostAPIs:      map[int]string{0: "CoreAudio"},
		DefaultInput:  0,
		DefaultOutput: 1,
	}
}

func TestSnapshotDevice(t *testing.T) {
	snap := testSnapshot()

	dev, err := snap.Device(1)
	require.NoError(t, err)
	assert.Equal(t, "Speaker", dev.Name)

	_, err = snap.Device(7)
	assert.Error(t, err)

	_, err = snap.Device(-1)
	assert.Error(t, err)
}

func TestHostAPIName(t *testing.T) {
	snap := testSnapshot()

	assert.Equal(t, "CoreAudio", snap.HostAPIName(0))
	// Unknown ids get a placeholder, not an empty string.
	assert.Equal(t, "API#3", snap.HostAPIName(3))
}

func TestSampleRateResolution(t *testing.T) {
	withRate := Device{DefaultSampleRate: 48000}
	withoutRate := Device{}

	assert.Equal(t, 48000.0, withRate.SampleRate(22050))
	assert.Equal(t, 22050.0, withoutRate.SampleRate(22050))
	assert.Equal(t, 44100.0, withoutRate.SampleRate(0))

	assert.True(t, withRate.HasSampleRate())
	assert.False(t, withoutRate.HasSampleRate())
}

func TestQueryErrorUnwrap(t *testing.T) {
	inner := assert.AnError
	err := &QueryError{Op: "devices", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "devices")
}
