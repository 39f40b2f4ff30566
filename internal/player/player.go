// ABOUTME: Playback session aggregate
// ABOUTME: Wires demux, decode, queue and output into one running stream
package player

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ericzyf/siren/internal/codec"
	"github.com/ericzyf/siren/internal/media"
	"github.com/ericzyf/siren/internal/output"
)

// Config describes one playback session.
type Config struct {
	Path         string
	Backend      string // "" selects the default backend
	DeviceIndex  int    // -1 selects the default output device
	SampleRate   int    // 0 uses the stream's native rate
	PeriodFrames int
}

// Player owns a full playback session: the container session, the decode
// session, the frame queue and the output stream. Construct with Open, then
// Start; Done is closed when playback ends for any reason.
type Player struct {
	id      string
	cfg     Config
	info    media.StreamInfo
	session media.Session
	decoder codec.Decoder
	feeder  *Feeder
	backend output.Backend
	stream  output.Stream
}

// Open builds the pipeline for path but does not start the hardware clock.
func Open(cfg Config) (*Player, error) {
	p := &Player{id: uuid.NewString(), cfg: cfg}

	session, err := media.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	p.session = session

	info, err := media.SelectAudioStream(session)
	if err != nil {
		p.closePartial()
		return nil, err
	}
	p.info = info

	slog.Info("opened stream",
		"session", p.id,
		"codec", info.Codec,
		"sample_rate", info.SampleRate,
		"channels", info.Channels,
		"format", info.Format,
		"planar", info.Planar)

	dec, err := codec.New(info)
	if err != nil {
		p.closePartial()
		return nil, err
	}
	p.decoder = dec

	format, err := output.Negotiate(info.Format)
	if err != nil {
		p.closePartial()
		return nil, err
	}

	stride := info.Channels * info.Format.BytesPerSample()
	queue := NewFrameQueue(stride)
	p.feeder = NewFeeder(session, dec, queue, info.Index)

	backend, err := output.New(cfg.Backend)
	if err != nil {
		p.closePartial()
		return nil, err
	}
	p.backend = backend

	rate := cfg.SampleRate
	if rate == 0 {
		rate = info.SampleRate
	}

	stream, err := backend.OpenStream(output.Config{
		DeviceIndex:  cfg.DeviceIndex,
		SampleRate:   rate,
		Channels:     info.Channels,
		Format:       format,
		PeriodFrames: cfg.PeriodFrames,
		Callback:     p.onPeriod,
	})
	if err != nil {
		p.closePartial()
		return nil, fmt.Errorf("failed to open %s stream: %w", backend.Name(), err)
	}
	p.stream = stream

	slog.Info("opened playback stream",
		"session", p.id,
		"backend", backend.Name(),
		"sample_rate", rate,
		"period_frames", cfg.PeriodFrames,
		"format", format)
	return p, nil
}

// onPeriod adapts the feeder's verdict to the backend contract.
func (p *Player) onPeriod(out []byte, frames int) output.Action {
	switch p.feeder.Fill(out, frames) {
	case StatusComplete:
		return output.Complete
	case StatusFatal:
		return output.Abort
	default:
		return output.Continue
	}
}

// Start sets the hardware clock running.
func (p *Player) Start() error {
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	slog.Info("playback started", "session", p.id)
	return nil
}

// Done is closed once the stream reaches a terminal state on its own.
func (p *Player) Done() <-chan struct{} {
	return p.stream.Done()
}

// Err returns the fatal decode fault, if playback aborted.
func (p *Player) Err() error {
	return p.feeder.Err()
}

func (p *Player) Stats() Stats {
	return p.feeder.Stats()
}

func (p *Player) Info() media.StreamInfo {
	return p.info
}

// Close stops the stream and releases every pipeline stage. Teardown faults
// are logged rather than returned; by this point the audio is done either way.
func (p *Player) Close() {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			slog.Warn("stream stop failed", "session", p.id, "err", err)
		}
		if err := p.stream.Close(); err != nil {
			slog.Warn("stream close failed", "session", p.id, "err", err)
		}
		p.stream = nil
	}
	p.closePartial()
	slog.Info("playback session closed", "session", p.id)
}

func (p *Player) closePartial() {
	if p.backend != nil {
		if err := p.backend.Close(); err != nil {
			slog.Warn("backend close failed", "session", p.id, "err", err)
		}
		p.backend = nil
	}
	if p.decoder != nil {
		if err := p.decoder.Close(); err != nil {
			slog.Warn("decoder close failed", "session", p.id, "err", err)
		}
		p.decoder = nil
	}
	if p.session != nil {
		if err := p.session.Close(); err != nil {
			slog.Warn("session close failed", "session", p.id, "err", err)
		}
		p.session = nil
	}
}
