// ABOUTME: Writes captured float32 buffers to 16-bit PCM WAV files.

package wavdump

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Save writes interleaved float32 samples to path as 16-bit PCM WAV.
func Save(path string, samples []float32, channels int, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create capture file: %w", err)
	}
	defer f.Close()

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = clamp16(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize capture: %w", err)
	}
	return nil
}

// CapturePath builds a timestamped file name for a capture of the given
// device inside dir.
func CapturePath(dir string, deviceIndex int) string {
	name := fmt.Sprintf("capture-dev%d-%s.wav", deviceIndex, time.Now().Format("20060102-150405"))
	return filepath.Join(dir, name)
}

func clamp16(s float32) int {
	v := int(s * 32767)
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}
