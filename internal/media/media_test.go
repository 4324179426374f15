package media

import (
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundctl/audioprobe/internal/wavdump"
)

func TestDecodeWAV(t *testing.T) {
	// Write a small stereo WAV and decode it back.
	path := filepath.Join(t.TempDir(), "clip.wav")
	src := []float32{0, 0.5, -0.5, 0.25, 0.125, -0.25}
	require.NoError(t, wavdump.Save(path, src, 2, 22050))

	clip, err := Decode(path)
	require.NoError(t, err)

	assert.Equal(t, 22050, clip.SampleRate)
	assert.Equal(t, 2, clip.Channels)
	require.Len(t, clip.Samples, len(src))
	for i := range src {
		assert.InDelta(t, src[i], clip.Samples[i], 0.001, "sample %d", i)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Decode("/nonexistent/clip.wav")
	assert.Error(t, err)
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.au")
	require.NoError(t, wavdump.Save(path, []float32{0}, 1, 44100))

	_, err := Decode(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")
}

func TestIntBufferToFloat32Scaling(t *testing.T) {
	buf := &audio.IntBuffer{Data: []int{0, 16384, -16384, 32767}}

	out := intBufferToFloat32(buf, 16)
	require.Len(t, out, 4)
	assert.Equal(t, float32(0), out[0])
	assert.InDelta(t, 0.5, float64(out[1]), 1e-4)
	assert.InDelta(t, -0.5, float64(out[2]), 1e-4)
	assert.InDelta(t, 1.0, float64(out[3]), 1e-3)

	// 24-bit values scale by 2^23.
	buf24 := &audio.IntBuffer{Data: []int{4194304}}
	out24 := intBufferToFloat32(buf24, 24)
	assert.InDelta(t, 0.5, float64(out24[0]), 1e-6)

	// Unknown depth falls back to 16-bit scaling.
	outOdd := intBufferToFloat32(&audio.IntBuffer{Data: []int{16384}}, 12)
	assert.InDelta(t, 0.5, float64(outOdd[0]), 1e-4)
}
