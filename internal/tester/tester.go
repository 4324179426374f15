// ABOUTME: Runs diagnostic tests against single devices: tone playback,
// ABOUTME: metered recording with optional echo/WAV export, and file playback.

package tester

import (
	"errors"
	"fmt"
	"io"

	"github.com/decred/slog"
	"github.com/gordonklaus/portaudio"

	"github.com/soundctl/audioprobe/internal/catalog"
	"github.com/soundctl/audioprobe/internal/dsp"
	"github.com/soundctl/audioprobe/internal/media"
	"github.com/soundctl/audioprobe/internal/wavdump"
)

const framesPerBuffer = 1024

// Options configures test behavior shared across operations.
type Options struct {
	FallbackRate float64 // sample rate when a device reports none
	EchoGain     float64 // gain applied when playing a capture back
	CaptureDir   string  // when set, captures are saved there as WAV
}

// ToneOptions parameterizes an output test.
type ToneOptions struct {
	Duration  float64 // seconds
	Frequency float64 // Hz
	Amplitude float64 // 0..1
}

// RecordOptions parameterizes an input test.
type RecordOptions struct {
	Duration float64 // seconds
}

// audioStream is the subset of *portaudio.Stream the tester drives. A seam
// for tests; production code always gets the real implementation.
type audioStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
	Write() error
}

// Tester runs device tests. Every operation re-queries the catalog so that
// no device state is carried between tests.
type Tester struct {
	out  io.Writer
	log  slog.Logger
	opts Options

	query        func() (*catalog.Snapshot, error)
	openPlayback func(dev *catalog.Device, channels int, sampleRate float64, buf []float32) (audioStream, error)
	openCapture  func(dev *catalog.Device, channels int, sampleRate float64, buf []float32) (audioStream, error)
}

// New creates a Tester writing progress to out.
func New(out io.Writer, log slog.Logger, opts Options) *Tester {
	return &Tester{
		out:          out,
		log:          log,
		opts:         opts,
		query:        catalog.Query,
		openPlayback: openPlaybackStream,
		openCapture:  openCaptureStream,
	}
}

// PlayTone plays a sine tone on the indexed output device and blocks until
// playback completes. Returns false (with a printed reason) when the device
// cannot be queried, has no output channels, or the stream fails.
func (t *Tester) PlayTone(index int, o ToneOptions) bool {
	dev, ok := t.outputDevice(index)
	if !ok {
		return false
	}

	sr := dev.SampleRate(t.opts.FallbackRate)
	channels := outputChannels(dev)
	frames := int(sr * o.Duration)

	tone := dsp.Sine(o.Frequency, o.Amplitude, sr, frames)
	data := dsp.Duplicate(tone, channels)

	fmt.Fprintf(t.out, "[out %d] playing %gHz tone for %gs (sr=%d)\n", index, o.Frequency, o.Duration, int(sr))
	if err := t.playBuffer(dev, data, channels, sr); err != nil {
		fmt.Fprintf(t.out, "[out %d] playback failed: %v\n", index, err)
		return false
	}
	fmt.Fprintf(t.out, "[out %d] finished\n", index)
	return true
}

// PlayFile decodes an audio file and plays it on the indexed output device,
// adapting the channel count to what the device supports.
func (t *Tester) PlayFile(index int, path string, _ ToneOptions) bool {
	dev, ok := t.outputDevice(index)
	if !ok {
		return false
	}

	clip, err := media.Decode(path)
	if err != nil {
		fmt.Fprintf(t.out, "[out %d] cannot decode %s: %v\n", index, path, err)
		return false
	}

	channels := outputChannels(dev)
	data := adaptChannels(clip.Samples, clip.Channels, channels)
	sr := float64(clip.SampleRate)
	seconds := float64(len(data)) / (sr * float64(channels))

	fmt.Fprintf(t.out, "[out %d] playing %s (%.1fs, sr=%d, ch=%d)\n", index, path, seconds, clip.SampleRate, channels)
	if err := t.playBuffer(dev, data, channels, sr); err != nil {
		fmt.Fprintf(t.out, "[out %d] playback failed: %v\n", index, err)
		return false
	}
	fmt.Fprintf(t.out, "[out %d] finished\n", index)
	return true
}

// TestInput records from the indexed input device, prints per-channel
// RMS/dBFS and the overall peak, then best-effort plays the capture back on
// the default output and saves it when a capture dir is configured. The
// return value reflects only the recording step.
func (t *Tester) TestInput(index int, o RecordOptions) bool {
	snap, err := t.query()
	if err != nil {
		fmt.Fprintf(t.out, "[in  %d] cannot query device: %v\n", index, err)
		return false
	}
	dev, err := snap.Device(index)
	if err != nil {
		fmt.Fprintf(t.out, "[in  %d] cannot query device: %v\n", index, err)
		return false
	}
	if dev.MaxInputChannels <= 0 {
		fmt.Fprintf(t.out, "[in  %d] no input channels, skipping\n", index)
		return false
	}

	channels := dev.MaxInputChannels
	if channels > 2 {
		channels = 2
	}
	sr := dev.SampleRate(t.opts.FallbackRate)
	frames := int(sr * o.Duration)

	fmt.Fprintf(t.out, "[in  %d] recording %gs (sr=%d, ch=%d) ...\n", index, o.Duration, int(sr), channels)
	rec, err := t.record(dev, channels, sr, frames)
	if err != nil {
		fmt.Fprintf(t.out, "[in  %d] recording failed: %v\n", index, err)
		return false
	}

	stats := dsp.Analyze(rec, channels)
	for ch := 0; ch < channels; ch++ {
		fmt.Fprintf(t.out, "  channel %d: RMS=%.6f, dBFS=%.1f dB\n", ch+1, stats.RMS[ch], stats.DBFS[ch])
	}
	fmt.Fprintf(t.out, "  peak amplitude: %.6f\n", stats.Peak)

	// Echo and capture export are best effort; neither affects the result.
	if echoErr := t.echo(snap, index, rec, channels, sr); echoErr != nil {
		fmt.Fprintf(t.out, "[in  %d] playback failed: %v\n", index, echoErr)
	}
	if t.opts.CaptureDir != "" {
		path := wavdump.CapturePath(t.opts.CaptureDir, index)
		if saveErr := wavdump.Save(path, rec, channels, int(sr)); saveErr != nil {
			fmt.Fprintf(t.out, "[in  %d] capture save failed: %v\n", index, saveErr)
		} else {
			fmt.Fprintf(t.out, "[in  %d] capture saved to %s\n", index, path)
		}
	}
	return true
}

// outputDevice queries a fresh snapshot and validates that index names an
// output-capable device, printing the reason when it does not.
func (t *Tester) outputDevice(index int) (*catalog.Device, bool) {
	snap, err := t.query()
	if err != nil {
		fmt.Fprintf(t.out, "[out %d] cannot query device: %v\n", index, err)
		return nil, false
	}
	dev, err := snap.Device(index)
	if err != nil {
		fmt.Fprintf(t.out, "[out %d] cannot query device: %v\n", index, err)
		return nil, false
	}
	if dev.MaxOutputChannels <= 0 {
		fmt.Fprintf(t.out, "[out %d] no output channels, skipping\n", index)
		return nil, false
	}
	return dev, true
}

func (t *Tester) playBuffer(dev *catalog.Device, samples []float32, channels int, sampleRate float64) error {
	buf := make([]float32, framesPerBuffer*channels)
	stream, err := t.openPlayback(dev, channels, sampleRate, buf)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	for pos := 0; pos < len(samples); pos += len(buf) {
		n := copy(buf, samples[pos:])
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		err := stream.Write()
		if errors.Is(err, portaudio.OutputUnderflowed) {
			t.log.Debugf("output underflow at frame %d", pos/channels)
			continue
		}
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	return nil
}

func (t *Tester) record(dev *catalog.Device, channels int, sampleRate float64, frames int) ([]float32, error) {
	buf := make([]float32, framesPerBuffer*channels)
	stream, err := t.openCapture(dev, channels, sampleRate, buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	rec := make([]float32, 0, frames*channels)
	for len(rec) < frames*channels {
		err := stream.Read()
		if errors.Is(err, portaudio.InputOverflowed) {
			t.log.Debugf("input overflow at frame %d", len(rec)/channels)
		} else if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		remaining := frames*channels - len(rec)
		if remaining > len(buf) {
			remaining = len(buf)
		}
		rec = append(rec, buf[:remaining]...)
	}
	return rec, nil
}

// echo plays a capture back on the default output device at the configured
// gain.
func (t *Tester) echo(snap *catalog.Snapshot, index int, rec []float32, channels int, sampleRate float64) error {
	if snap.DefaultOutput == catalog.NoDevice {
		return errors.New("no default output device")
	}
	out, err := snap.Device(snap.DefaultOutput)
	if err != nil {
		return err
	}
	if out.MaxOutputChannels < channels {
		rec = dsp.Downmix(rec)
		channels = 1
	}

	fmt.Fprintf(t.out, "[in  %d] playing back recording on output device %d ...\n", index, out.Index)
	if err := t.playBuffer(out, dsp.Scale(rec, t.opts.EchoGain), channels, sampleRate); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "[in  %d] playback finished\n", index)
	return nil
}

func outputChannels(dev *catalog.Device) int {
	if dev.MaxOutputChannels >= 2 {
		return 2
	}
	return 1
}

func adaptChannels(samples []float32, from, to int) []float32 {
	switch {
	case from == to:
		return samples
	case from == 1 && to == 2:
		return dsp.Duplicate(samples, 2)
	case from == 2 && to == 1:
		return dsp.Downmix(samples)
	default:
		return samples
	}
}

func openPlaybackStream(dev *catalog.Device, channels int, sampleRate float64, buf []float32) (audioStream, error) {
	info := dev.StreamInfo()
	if info == nil {
		return nil, errors.New("device has no native stream info")
	}
	p := portaudio.HighLatencyParameters(nil, info)
	p.Output.Channels = channels
	p.SampleRate = sampleRate
	p.FramesPerBuffer = framesPerBuffer
	return portaudio.OpenStream(p, buf)
}

func openCaptureStream(dev *catalog.Device, channels int, sampleRate float64, buf []float32) (audioStream, error) {
	info := dev.StreamInfo()
	if info == nil {
		return nil, errors.New("device has no native stream info")
	}
	p := portaudio.HighLatencyParameters(info, nil)
	p.Input.Channels = channels
	p.SampleRate = sampleRate
	p.FramesPerBuffer = framesPerBuffer
	return portaudio.OpenStream(p, buf)
}
