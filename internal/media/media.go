// ABOUTME: Decodes audio files to interleaved float32 samples for playback tests.
// ABOUTME: Supports MP3, WAV, FLAC, OGG/Vorbis and AIFF.

package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Clip is a decoded audio file.
type Clip struct {
	Samples    []float32 // interleaved
	SampleRate int
	Channels   int
}

// Decode reads an audio file into a Clip. The format is selected by file
// extension.
func Decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return decodeMP3(f)
	case ".wav":
		return decodeWAV(f)
	case ".flac":
		return decodeFLAC(f)
	case ".ogg":
		return decodeOGG(f)
	case ".aiff", ".aif":
		return decodeAIFF(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
}

func decodeMP3(f *os.File) (*Clip, error) {
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()
	return streamToClip(streamer, int(format.SampleRate), format.NumChannels), nil
}

func decodeWAV(f *os.File) (*Clip, error) {
	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()
	return streamToClip(streamer, int(format.SampleRate), format.NumChannels), nil
}

func decodeFLAC(f *os.File) (*Clip, error) {
	streamer, format, err := flac.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()
	return streamToClip(streamer, int(format.SampleRate), format.NumChannels), nil
}

func decodeOGG(f *os.File) (*Clip, error) {
	streamer, format, err := vorbis.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()
	return streamToClip(streamer, int(format.SampleRate), format.NumChannels), nil
}

func decodeAIFF(f *os.File) (*Clip, error) {
	decoder := aiff.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid AIFF file")
	}
	decoder.ReadInfo()

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read AIFF data: %w", err)
	}
	return &Clip{
		Samples:    intBufferToFloat32(buf, int(decoder.BitDepth)),
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}, nil
}

// streamToClip drains a beep streamer into an interleaved float32 buffer.
// Mono sources keep only the left channel.
func streamToClip(streamer interface {
	Stream([][2]float64) (int, bool)
}, sampleRate, channels int) *Clip {
	if channels > 2 {
		channels = 2
	}
	var samples []float32
	buffer := make([][2]float64, 512)

	for {
		n, ok := streamer.Stream(buffer)
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			samples = append(samples, float32(buffer[i][0]))
			if channels == 2 {
				samples = append(samples, float32(buffer[i][1]))
			}
		}
		if !ok {
			break
		}
	}

	return &Clip{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// intBufferToFloat32 normalizes a go-audio IntBuffer to [-1, 1] according to
// its source bit depth.
func intBufferToFloat32(buf *audio.IntBuffer, bitDepth int) []float32 {
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(float64(v) / scale)
	}
	return samples
}
