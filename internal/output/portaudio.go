//go:build portaudio

// ABOUTME: PortAudio playback backend
// ABOUTME: Callback stream with underflow reporting, s16 only
package output

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio backend. Like the hardware API it wraps, it reports period
// underflow through the callback flags; an underrun is logged only and does
// not change how the current period is served.
type PortAudio struct{}

func NewPortAudio() (Backend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &PortAudio{}, nil
}

func (b *PortAudio) Name() string { return "portaudio" }

func (b *PortAudio) Devices() ([]DeviceInfo, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}
	def, _ := portaudio.DefaultOutputDevice()
	var devices []DeviceInfo
	for i, info := range infos {
		if info.MaxOutputChannels < 1 {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:     i,
			Name:      info.Name,
			IsDefault: def != nil && info.Name == def.Name,
		})
	}
	return devices, nil
}

func (b *PortAudio) OpenStream(cfg Config) (Stream, error) {
	if cfg.Format != FormatS16 {
		return nil, fmt.Errorf("%w: %s (portaudio backend supports s16 only)", ErrUnsupportedFormat, cfg.Format)
	}

	st := &paStream{done: make(chan struct{})}
	scratch := make([]byte, cfg.PeriodFrames*cfg.Channels*2)

	callback := func(out []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		if flags&portaudio.OutputUnderflow != 0 {
			slog.Info("stream underflow detected")
		}
		if st.finished {
			for i := range out {
				out[i] = 0
			}
			return
		}
		frames := len(out) / cfg.Channels
		need := frames * cfg.Channels * 2
		if need > len(scratch) {
			scratch = make([]byte, need)
		}
		action := cfg.Callback(scratch[:need], frames)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(scratch[i*2:]))
		}
		if action != Continue {
			st.finished = true
			st.signal()
		}
	}

	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), cfg.PeriodFrames, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open playback stream: %w", err)
	}
	st.stream = stream
	return st, nil
}

func (b *PortAudio) Close() error {
	return portaudio.Terminate()
}

type paStream struct {
	stream *portaudio.Stream
	done   chan struct{}
	once   sync.Once

	// finished is touched only on the callback thread.
	finished bool
}

func (s *paStream) signal() {
	s.once.Do(func() { close(s.done) })
}

func (s *paStream) Start() error {
	return s.stream.Start()
}

func (s *paStream) Stop() error {
	return s.stream.Stop()
}

func (s *paStream) Close() error {
	return s.stream.Close()
}

func (s *paStream) Done() <-chan struct{} {
	return s.done
}
