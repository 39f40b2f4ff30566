// ABOUTME: Oto-based playback backend
// ABOUTME: Inverts the pull-based oto player into the callback contract
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Oto adapts the callback contract onto oto's reader-pulling player: each
// Read serves at most one period from the callback. oto allows a single
// context per process, which is fine for one playback session.
type Oto struct{}

func NewOto() (Backend, error) {
	return &Oto{}, nil
}

func (b *Oto) Name() string { return "oto" }

// Devices returns the default device only; oto has no enumeration API.
func (b *Oto) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{Index: 0, Name: "default", IsDefault: true}}, nil
}

func (b *Oto) OpenStream(cfg Config) (Stream, error) {
	var of oto.Format
	switch cfg.Format {
	case FormatU8:
		of = oto.FormatUnsignedInt8
	case FormatS16:
		of = oto.FormatSignedInt16LE
	case FormatF32:
		of = oto.FormatFloat32LE
	default:
		return nil, fmt.Errorf("%w: %s (oto backend)", ErrUnsupportedFormat, cfg.Format)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       of,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	r := &callbackReader{
		cb:     cfg.Callback,
		stride: cfg.Channels * cfg.Format.BytesPerSample(),
		period: cfg.PeriodFrames,
		done:   make(chan struct{}),
	}
	return &otoStream{player: ctx.NewPlayer(r), reader: r}, nil
}

func (b *Oto) Close() error {
	return nil
}

type otoStream struct {
	player *oto.Player
	reader *callbackReader
}

func (s *otoStream) Start() error {
	s.player.Play()
	return nil
}

func (s *otoStream) Stop() error {
	s.player.Pause()
	return nil
}

func (s *otoStream) Close() error {
	return s.player.Close()
}

func (s *otoStream) Done() <-chan struct{} {
	return s.reader.done
}

// callbackReader feeds the oto player from the period callback. Reads happen
// on oto's audio goroutine, preserving the single-owner discipline.
type callbackReader struct {
	cb      Callback
	stride  int
	period  int
	done    chan struct{}
	once    sync.Once
	pending []byte
	last    bool
}

func (r *callbackReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.last {
			r.signal()
			return 0, io.EOF
		}
		buf := make([]byte, r.period*r.stride)
		switch r.cb(buf, r.period) {
		case Continue:
			r.pending = buf
		case Complete:
			// Deliver the final flushed period, then EOF.
			r.pending = buf
			r.last = true
		default:
			r.signal()
			return 0, io.EOF
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *callbackReader) signal() {
	r.once.Do(func() { close(r.done) })
}
