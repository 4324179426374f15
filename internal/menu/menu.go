// ABOUTME: Interactive read-eval loop for running device tests after listing.

package menu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soundctl/audioprobe/internal/catalog"
	"github.com/soundctl/audioprobe/internal/config"
	"github.com/soundctl/audioprobe/internal/tester"
)

// Runner is the test dispatch surface the menu drives.
type Runner interface {
	PlayTone(index int, o tester.ToneOptions) bool
	TestInput(index int, o tester.RecordOptions) bool
}

// Menu loops over test choices until the user quits.
type Menu struct {
	in       *bufio.Scanner
	out      io.Writer
	runner   Runner
	query    func() (*catalog.Snapshot, error)
	defaults config.TestDefaults
}

// New builds a menu reading choices from in. defaults seed the parameter
// prompts; empty input accepts them.
func New(in io.Reader, out io.Writer, runner Runner, defaults config.TestDefaults) *Menu {
	return &Menu{
		in:       bufio.NewScanner(in),
		out:      out,
		runner:   runner,
		query:    catalog.Query,
		defaults: defaults,
	}
}

// Run blocks until the user selects quit or input is exhausted.
func (m *Menu) Run() {
	fmt.Fprintln(m.out, "\nInteractive test mode. Press Enter to accept defaults or 'q' to quit.")
	for {
		fmt.Fprintln(m.out, "\nOptions:")
		fmt.Fprintln(m.out, "  1) Test single output by index")
		fmt.Fprintln(m.out, "  2) Test single input by index")
		fmt.Fprintln(m.out, "  3) Test all outputs")
		fmt.Fprintln(m.out, "  4) Test all inputs")
		fmt.Fprintln(m.out, "  q) Quit")

		choice, ok := m.prompt("Select option [q]: ")
		if !ok || choice == "" || choice == "q" {
			break
		}

		switch choice {
		case "1":
			m.testOneOutput()
		case "2":
			m.testOneInput()
		case "3":
			m.testAllOutputs()
		case "4":
			m.testAllInputs()
		default:
			fmt.Fprintln(m.out, "Unknown option")
		}
	}
	fmt.Fprintln(m.out, "Exiting interactive test mode.")
}

func (m *Menu) testOneOutput() {
	idx, ok := m.promptIndex("Output device index: ")
	if !ok {
		return
	}
	m.runner.PlayTone(idx, m.promptToneOptions())
}

func (m *Menu) testOneInput() {
	idx, ok := m.promptIndex("Input device index: ")
	if !ok {
		return
	}
	dur := m.promptFloat(fmt.Sprintf("Duration seconds [%g]: ", m.defaults.DurationSeconds), m.defaults.DurationSeconds)
	m.runner.TestInput(idx, tester.RecordOptions{Duration: dur})
}

func (m *Menu) testAllOutputs() {
	opts := m.promptToneOptions()
	snap, err := m.query()
	if err != nil {
		fmt.Fprintf(m.out, "Failed to query audio devices: %v\n", err)
		return
	}
	for i := range snap.Devices {
		if snap.Devices[i].MaxOutputChannels > 0 {
			m.runner.PlayTone(snap.Devices[i].Index, opts)
		}
	}
}

func (m *Menu) testAllInputs() {
	dur := m.promptFloat(fmt.Sprintf("Duration seconds [%g]: ", m.defaults.DurationSeconds), m.defaults.DurationSeconds)
	snap, err := m.query()
	if err != nil {
		fmt.Fprintf(m.out, "Failed to query audio devices: %v\n", err)
		return
	}
	for i := range snap.Devices {
		if snap.Devices[i].MaxInputChannels > 0 {
			m.runner.TestInput(snap.Devices[i].Index, tester.RecordOptions{Duration: dur})
		}
	}
}

func (m *Menu) promptToneOptions() tester.ToneOptions {
	d := m.defaults
	return tester.ToneOptions{
		Duration:  m.promptFloat(fmt.Sprintf("Duration seconds [%g]: ", d.DurationSeconds), d.DurationSeconds),
		Frequency: m.promptFloat(fmt.Sprintf("Tone freq Hz [%g]: ", d.FrequencyHz), d.FrequencyHz),
		Amplitude: m.promptFloat(fmt.Sprintf("Amp 0..1 [%g]: ", d.Amplitude), d.Amplitude),
	}
}

// promptIndex reads a device index; a non-numeric answer reports the error
// and returns to the menu.
func (m *Menu) promptIndex(label string) (int, bool) {
	s, ok := m.prompt(label)
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid index")
		return 0, false
	}
	return idx, true
}

// promptFloat reads a parameter value. Empty or unparsable input reverts to
// the built-in default, not the previous run's value.
func (m *Menu) promptFloat(label string, def float64) float64 {
	s, ok := m.prompt(label)
	if !ok || s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(m.in.Text())), true
}

// AskYesNo prints a one-shot prompt and reports whether the answer was yes.
func AskYesNo(in io.Reader, out io.Writer, label string) bool {
	fmt.Fprint(out, label)
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(sc.Text()), "y")
}
