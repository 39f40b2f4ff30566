// ABOUTME: Audio output interface definitions
// ABOUTME: Common callback-driven contract for playback backends
package output

import "fmt"

// Action is the callback's verdict for one period.
type Action int

const (
	// Continue means the period was filled and more are expected.
	Continue Action = iota

	// Complete means the source is drained; this period holds the final
	// frames and the stream should stop.
	Complete

	// Abort means a fatal fault occurred; stop without playing the period.
	Abort
)

// Format is a backend-native sample format.
type Format int

const (
	FormatU8 Format = iota
	FormatS16
	FormatS32
	FormatF32
)

func (f Format) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	default:
		return 4
	}
}

func (f Format) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16:
		return "s16"
	case FormatS32:
		return "s32"
	case FormatF32:
		return "f32"
	}
	return "unknown"
}

// Callback fills out with exactly frames interleaved frames. It runs on the
// backend's scheduling thread; invocations never overlap.
type Callback func(out []byte, frames int) Action

// Config describes the stream to open.
type Config struct {
	DeviceIndex  int // -1 selects the default output device
	SampleRate   int
	Channels     int
	Format       Format
	PeriodFrames int
	Callback     Callback
}

// DeviceInfo describes one playback device.
type DeviceInfo struct {
	Index     int
	Name      string
	IsDefault bool
}

// Stream is a live playback stream. Done is closed once the callback reports
// Complete or Abort; Stop must be called from a non-callback goroutine.
type Stream interface {
	Start() error
	Stop() error
	Close() error
	Done() <-chan struct{}
}

// Backend is an audio playback backend.
type Backend interface {
	Name() string
	Devices() ([]DeviceInfo, error)
	OpenStream(cfg Config) (Stream, error)
	Close() error
}

// New creates the named backend; the empty name selects malgo.
func New(name string) (Backend, error) {
	switch name {
	case "", "malgo":
		return NewMalgo()
	case "oto":
		return NewOto()
	case "portaudio":
		return NewPortAudio()
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", name)
	}
}
