// ABOUTME: audioprobe lists host audio devices and runs short diagnostic tests
// ABOUTME: against them: tone playback, metered recording, file playback.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gordonklaus/portaudio"

	"github.com/soundctl/audioprobe/internal/catalog"
	"github.com/soundctl/audioprobe/internal/config"
	"github.com/soundctl/audioprobe/internal/format"
	"github.com/soundctl/audioprobe/internal/logging"
	"github.com/soundctl/audioprobe/internal/menu"
	"github.com/soundctl/audioprobe/internal/tester"
)

const version = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	jsonFlag := flag.Bool("json", false, "Output device list as JSON")
	sortFlag := flag.String("sort", "index", "Sort devices: index, name, in, out")
	showSRFlag := flag.Bool("show-sr", false, "Show default samplerate in the listing")
	testOutputIndex := flag.Int("test-output-index", -1, "Play test tone to output device index")
	testInputIndex := flag.Int("test-input-index", -1, "Record short sample from input device index")
	testAllOutputs := flag.Bool("test-all-outputs", false, "Play test tone to all output devices")
	testAllInputs := flag.Bool("test-all-inputs", false, "Record short sample from all input devices")
	duration := flag.Float64("duration", 2.0, "Duration in seconds for tests")
	freq := flag.Float64("freq", 1000.0, "Frequency for output test tone (Hz)")
	amp := flag.Float64("amp", 0.2, "Amplitude for output test tone (0.0-1.0)")
	playFile := flag.String("play-file", "", "Audio file to play instead of a tone for output tests")
	saveCapture := flag.String("save-capture", "", "Directory to save recorded captures as WAV files")
	configPath := flag.String("config", "", "Path to config file (default: user config dir)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: audioprobe [options]\n\n")
		fmt.Fprintf(os.Stderr, "Lists audio devices, then optionally tests them.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  audioprobe --json --sort name\n")
		fmt.Fprintf(os.Stderr, "  audioprobe --test-output-index 3 --freq 440 --duration 1\n")
		fmt.Fprintf(os.Stderr, "  audioprobe --test-all-inputs --save-capture ./captures\n")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("audioprobe v%s\n", version)
		return 0
	}

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Explicit flags override config file values.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["duration"] {
		cfg.Defaults.DurationSeconds = *duration
	}
	if set["freq"] {
		cfg.Defaults.FrequencyHz = *freq
	}
	if set["amp"] {
		cfg.Defaults.Amplitude = *amp
	}
	if set["sort"] {
		cfg.Output.Sort = *sortFlag
	}
	if set["json"] {
		cfg.Output.JSON = *jsonFlag
	}
	if set["show-sr"] {
		cfg.Output.ShowSampleRate = *showSRFlag
	}
	if set["save-capture"] {
		cfg.Output.CaptureDir = *saveCapture
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	sortMode, err := format.ParseSortMode(cfg.Output.Sort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log := logging.New(os.Stderr, *debug)

	if err := portaudio.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize audio subsystem: %v\n", err)
		return 1
	}
	defer portaudio.Terminate()

	// Always list devices first; a failing catalog query is fatal here.
	snap, err := catalog.Query()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query audio devices: %v\n", err)
		return 1
	}

	if cfg.Output.JSON {
		data, err := format.JSON(snap, sortMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode device list: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else {
		format.WriteListing(os.Stdout, snap, sortMode, cfg.Output.ShowSampleRate)
	}

	tr := tester.New(os.Stdout, log, tester.Options{
		FallbackRate: cfg.Defaults.SampleRate,
		EchoGain:     cfg.Defaults.EchoGain,
		CaptureDir:   cfg.Output.CaptureDir,
	})
	tone := tester.ToneOptions{
		Duration:  cfg.Defaults.DurationSeconds,
		Frequency: cfg.Defaults.FrequencyHz,
		Amplitude: cfg.Defaults.Amplitude,
	}
	rec := tester.RecordOptions{Duration: cfg.Defaults.DurationSeconds}

	// Test failures are reported on stdout but never change the exit code;
	// only the startup query above is fatal.
	ranTests := false
	if *testOutputIndex >= 0 {
		ranTests = true
		playOutput(tr, *testOutputIndex, *playFile, tone)
	}
	if *testInputIndex >= 0 {
		ranTests = true
		tr.TestInput(*testInputIndex, rec)
	}
	if *testAllOutputs {
		ranTests = true
		forEachDevice(func(d *catalog.Device) {
			if d.MaxOutputChannels > 0 {
				playOutput(tr, d.Index, *playFile, tone)
			}
		})
	}
	if *testAllInputs {
		ranTests = true
		forEachDevice(func(d *catalog.Device) {
			if d.MaxInputChannels > 0 {
				tr.TestInput(d.Index, rec)
			}
		})
	}

	if !ranTests && isTerminal(os.Stdin) {
		if menu.AskYesNo(os.Stdin, os.Stdout, "\nRun tests now? [y/N]: ") {
			menu.New(os.Stdin, os.Stdout, tr, cfg.Defaults).Run()
		}
	}
	return 0
}

func playOutput(tr *tester.Tester, index int, file string, tone tester.ToneOptions) {
	if file != "" {
		tr.PlayFile(index, file, tone)
		return
	}
	tr.PlayTone(index, tone)
}

// forEachDevice iterates a fresh catalog snapshot in raw index order. A
// failing re-query is reported and skipped, matching per-test error
// semantics.
func forEachDevice(fn func(d *catalog.Device)) {
	snap, err := catalog.Query()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query audio devices: %v\n", err)
		return
	}
	for i := range snap.Devices {
		fn(&snap.Devices[i])
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
