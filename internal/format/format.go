// ABOUTME: Formats catalog snapshots as human-readable listings or JSON.
// ABOUTME: Owns the device sort order used by both output shapes.

package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/soundctl/audioprobe/internal/catalog"
)

// SortMode selects the device ordering of a listing.
type SortMode int

const (
	SortIndex SortMode = iota // raw catalog order
	SortName                  // lower-cased name, stable
	SortIn                    // descending input channel count
	SortOut                   // descending output channel count
)

func (m SortMode) String() string {
	switch m {
	case SortName:
		return "name"
	case SortIn:
		return "in"
	case SortOut:
		return "out"
	default:
		return "index"
	}
}

// ParseSortMode maps a --sort flag value to a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	switch s {
	case "", "index":
		return SortIndex, nil
	case "name":
		return SortName, nil
	case "in":
		return SortIn, nil
	case "out":
		return SortOut, nil
	default:
		return SortIndex, fmt.Errorf("invalid sort mode: %s (must be one of: index, name, in, out)", s)
	}
}

// Sorted returns a copy of devs ordered by mode. All orderings are stable
// for equal keys.
func Sorted(devs []catalog.Device, mode SortMode) []catalog.Device {
	out := make([]catalog.Device, len(devs))
	copy(out, devs)

	switch mode {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortIn:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].MaxInputChannels > out[j].MaxInputChannels
		})
	case SortOut:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].MaxOutputChannels > out[j].MaxOutputChannels
		})
	}
	return out
}

// Line renders one device as a listing line, annotating the system default
// input/output and optionally the default sample rate.
func Line(d *catalog.Device, snap *catalog.Snapshot, showSR bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  [%d] %s - %s | in:%d out:%d",
		d.Index, d.Name, snap.HostAPIName(d.HostAPIID),
		d.MaxInputChannels, d.MaxOutputChannels)

	if showSR {
		if d.HasSampleRate() {
			fmt.Fprintf(&b, " | sr: %d", int(d.DefaultSampleRate))
		} else {
			b.WriteString(" | sr: N/A")
		}
	}

	var marks []string
	if d.Index == snap.DefaultInput {
		marks = append(marks, "default input")
	}
	if d.Index == snap.DefaultOutput {
		marks = append(marks, "default output")
	}
	if len(marks) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(marks, ", "))
	}
	return b.String()
}

type deviceJSON struct {
	Index             int      `json:"index"`
	Name              string   `json:"name"`
	HostAPI           string   `json:"hostapi"`
	MaxInputChannels  int      `json:"max_input_channels"`
	MaxOutputChannels int      `json:"max_output_channels"`
	DefaultSampleRate *float64 `json:"default_samplerate"`
	IsDefaultInput    bool     `json:"is_default_input"`
	IsDefaultOutput   bool     `json:"is_default_output"`
}

// JSON renders the snapshot as an indented JSON array, one object per
// device, in the given sort order. An absent sample rate is an explicit
// null, not a missing key.
func JSON(snap *catalog.Snapshot, mode SortMode) ([]byte, error) {
	devs := Sorted(snap.Devices, mode)
	out := make([]deviceJSON, 0, len(devs))
	for i := range devs {
		d := &devs[i]
		entry := deviceJSON{
			Index:             d.Index,
			Name:              d.Name,
			HostAPI:           snap.HostAPIName(d.HostAPIID),
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			IsDefaultInput:    d.Index == snap.DefaultInput,
			IsDefaultOutput:   d.Index == snap.DefaultOutput,
		}
		if d.HasSampleRate() {
			sr := d.DefaultSampleRate
			entry.DefaultSampleRate = &sr
		}
		out = append(out, entry)
	}
	return json.MarshalIndent(out, "", "  ")
}

// WriteListing prints the sectioned text listing: devices with input
// channels first, then devices with output channels.
func WriteListing(w io.Writer, snap *catalog.Snapshot, mode SortMode, showSR bool) {
	devs := Sorted(snap.Devices, mode)

	fmt.Fprintln(w, "Audio input devices:")
	for i := range devs {
		if devs[i].MaxInputChannels > 0 {
			fmt.Fprintln(w, Line(&devs[i], snap, showSR))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Audio output devices:")
	for i := range devs {
		if devs[i].MaxOutputChannels > 0 {
			fmt.Fprintln(w, Line(&devs[i], snap, showSR))
		}
	}
}
