// ABOUTME: Malgo-based playback backend
// ABOUTME: Drives the feeder from miniaudio's hardware data callback
package output

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// Malgo is the default backend: miniaudio invokes the data callback once per
// hardware period with the requested frame count, which matches the feeder
// contract directly.
type Malgo struct {
	ctx *malgo.AllocatedContext
}

func NewMalgo() (Backend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &Malgo{ctx: ctx}, nil
}

func (b *Malgo) Name() string { return "malgo" }

func (b *Malgo) Devices() ([]DeviceInfo, error) {
	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}
	devices := make([]DeviceInfo, len(infos))
	for i, info := range infos {
		devices[i] = DeviceInfo{
			Index:     i,
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
		}
	}
	return devices, nil
}

func (b *Malgo) OpenStream(cfg Config) (Stream, error) {
	var mf malgo.FormatType
	switch cfg.Format {
	case FormatU8:
		mf = malgo.FormatU8
	case FormatS16:
		mf = malgo.FormatS16
	case FormatS32:
		mf = malgo.FormatS32
	case FormatF32:
		mf = malgo.FormatF32
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, cfg.Format)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = mf
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)
	deviceConfig.Alsa.NoMMap = 1

	if cfg.DeviceIndex >= 0 {
		infos, err := b.ctx.Devices(malgo.Playback)
		if err != nil {
			return nil, fmt.Errorf("device enumeration failed: %w", err)
		}
		if cfg.DeviceIndex >= len(infos) {
			return nil, fmt.Errorf("no playback device at index %d", cfg.DeviceIndex)
		}
		deviceConfig.Playback.DeviceID = infos[cfg.DeviceIndex].ID.Pointer()
	}

	st := &malgoStream{done: make(chan struct{})}

	onSamples := func(pOutput, _ []byte, frameCount uint32) {
		if st.finished {
			zeroBytes(pOutput)
			return
		}
		if cfg.Callback(pOutput, int(frameCount)) != Continue {
			st.finished = true
			st.signal()
		}
	}

	device, err := malgo.InitDevice(b.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return nil, fmt.Errorf("failed to open playback stream: %w", err)
	}
	st.device = device
	return st, nil
}

func (b *Malgo) Close() error {
	if err := b.ctx.Uninit(); err != nil {
		return fmt.Errorf("malgo context uninit failed: %w", err)
	}
	b.ctx.Free()
	return nil
}

type malgoStream struct {
	device *malgo.Device
	done   chan struct{}
	once   sync.Once

	// finished is touched only on the callback thread.
	finished bool
}

func (s *malgoStream) signal() {
	s.once.Do(func() { close(s.done) })
}

func (s *malgoStream) Start() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback stream: %w", err)
	}
	return nil
}

func (s *malgoStream) Stop() error {
	if err := s.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback stream: %w", err)
	}
	return nil
}

func (s *malgoStream) Close() error {
	s.device.Uninit()
	return nil
}

func (s *malgoStream) Done() <-chan struct{} {
	return s.done
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
