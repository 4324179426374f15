// ABOUTME: Device catalog accessor over PortAudio.
// ABOUTME: Builds a per-call snapshot of devices, host APIs and default indices.

package catalog

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// NoDevice marks an absent default input or output index.
const NoDevice = -1

// Device is a read-only snapshot of one audio device.
type Device struct {
	Index             int
	Name              string
	HostAPIID         int
	MaxInputChannels  int
	MaxOutputChannels int

	// DefaultSampleRate is the device's preferred rate in Hz, 0 when the
	// backend does not report one.
	DefaultSampleRate float64

	info *portaudio.DeviceInfo
}

// HasSampleRate reports whether the backend provided a default sample rate.
func (d *Device) HasSampleRate() bool {
	return d.DefaultSampleRate > 0
}

// SampleRate resolves the rate to use for a test: the device default when
// present, otherwise the given fallback, otherwise 44100 Hz.
func (d *Device) SampleRate(fallback float64) float64 {
	if d.DefaultSampleRate > 0 {
		return d.DefaultSampleRate
	}
	if fallback > 0 {
		return fallback
	}
	return 44100
}

// StreamInfo exposes the underlying PortAudio device for stream parameters.
// Nil for snapshots built outside of a Query call (tests).
func (d *Device) StreamInfo() *portaudio.DeviceInfo {
	return d.info
}

// Snapshot is the result of one catalog query. It is never cached across
// operations; every listing or test pass rebuilds it.
type Snapshot struct {
	Devices  []Device
	HostAPIs map[int]string

	// DefaultInput and DefaultOutput are device indices, NoDevice when the
	// system designates none.
	DefaultInput  int
	DefaultOutput int
}

// QueryError wraps a failure of the native enumeration layer.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Query enumerates devices, host APIs and default device indices in one
// pass. PortAudio must already be initialized.
func Query() (*Snapshot, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, &QueryError{Op: "devices", Err: err}
	}

	apis, err := portaudio.HostApis()
	if err != nil {
		return nil, &QueryError{Op: "host apis", Err: err}
	}

	snap := &Snapshot{
		Devices:       make([]Device, 0, len(infos)),
		HostAPIs:      make(map[int]string, len(apis)),
		DefaultInput:  NoDevice,
		DefaultOutput: NoDevice,
	}
	for id, api := range apis {
		snap.HostAPIs[id] = api.Name
	}

	for _, info := range infos {
		snap.Devices = append(snap.Devices, Device{
			Index:             info.Index,
			Name:              info.Name,
			HostAPIID:         hostAPIID(apis, info),
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			info:              info,
		})
	}

	// Defaults can be legitimately absent (e.g. no input hardware), so the
	// lookups failing is not a query error.
	if in, err := portaudio.DefaultInputDevice(); err == nil && in != nil {
		snap.DefaultInput = in.Index
	}
	if out, err := portaudio.DefaultOutputDevice(); err == nil && out != nil {
		snap.DefaultOutput = out.Index
	}

	return snap, nil
}

// Device returns the descriptor for a raw device index.
func (s *Snapshot) Device(index int) (*Device, error) {
	for i := range s.Devices {
		if s.Devices[i].Index == index {
			return &s.Devices[i], nil
		}
	}
	return nil, fmt.Errorf("no device with index %d (have %d devices)", index, len(s.Devices))
}

// HostAPIName returns the display name for a host API id.
func (s *Snapshot) HostAPIName(id int) string {
	if name, ok := s.HostAPIs[id]; ok {
		return name
	}
	return fmt.Sprintf("API#%d", id)
}

func hostAPIID(apis []*portaudio.HostApiInfo, info *portaudio.DeviceInfo) int {
	for id, api := range apis {
		if api == info.HostApi {
			return id
		}
	}
	// Fall back to a name match; pointer identity should always hold.
	if info.HostApi != nil {
		for id, api := range apis {
			if api.Name == info.HostApi.Name {
				return id
			}
		}
	}
	return NoDevice
}
