// ABOUTME: Playback feeder driven by the hardware callback
// ABOUTME: Pulls packets through decode and repack until each period is covered
package player

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/ericzyf/siren/internal/codec"
	"github.com/ericzyf/siren/internal/media"
)

// Status is the feeder's answer to one callback invocation.
type Status int

const (
	// StatusContinue means the period was filled and more data is expected.
	StatusContinue Status = iota

	// StatusComplete means the source is exhausted; remaining whole frames
	// were flushed and the stream should be stopped.
	StatusComplete

	// StatusFatal means an unrecoverable decode fault occurred; nothing was
	// written and the stream should be stopped.
	StatusFatal
)

// Stats is a snapshot of feeder counters, safe to read from any goroutine.
type Stats struct {
	FramesPlayed   int64
	PacketsRead    int64
	PacketsSkipped int64
	QueueDepth     int64
}

// Feeder owns the whole decode→repack→feed path. All mutable state — the
// queue, the demux read cursor and the decode session — is touched only by
// the callback invocation currently running; the backend guarantees
// callbacks never overlap.
type Feeder struct {
	src         media.Session
	dec         codec.Decoder
	queue       *FrameQueue
	streamIndex int

	channels       int
	bytesPerSample int
	planar         bool
	stride         int

	state Status
	err   error

	framesPlayed   atomic.Int64
	packetsRead    atomic.Int64
	packetsSkipped atomic.Int64
	queueDepth     atomic.Int64
}

func NewFeeder(src media.Session, dec codec.Decoder, q *FrameQueue, streamIndex int) *Feeder {
	return &Feeder{
		src:            src,
		dec:            dec,
		queue:          q,
		streamIndex:    streamIndex,
		channels:       dec.Channels(),
		bytesPerSample: dec.BytesPerSample(),
		planar:         dec.Planar(),
		stride:         q.Stride(),
	}
}

// Fill covers one hardware period: it tops the queue up to frames, then
// copies exactly frames of audio into out. On source exhaustion it flushes
// whatever whole frames remain (possibly fewer than requested), zeroes the
// rest of out and reports completion. Terminal states are sticky.
func (f *Feeder) Fill(out []byte, frames int) Status {
	if f.state != StatusContinue {
		zero(out)
		return f.state
	}

	for f.queue.Len() < frames {
		pkt, err := f.src.ReadPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Error("packet read failed", "err", err)
			}
			n := f.flush(out)
			zero(out[n*f.stride:])
			f.framesPlayed.Add(int64(n))
			f.queueDepth.Store(0)
			f.state = StatusComplete
			slog.Info("end of stream", "flushed_frames", n)
			return StatusComplete
		}
		f.packetsRead.Add(1)

		if pkt.StreamIndex != f.streamIndex {
			continue
		}
		slog.Debug("packet", "pts", pkt.PTS, "bytes", len(pkt.Data))

		rows, derr := f.dec.Decode(pkt.Data)
		switch {
		case derr == nil:
			Repack(f.queue, rows, f.planar, f.channels, f.bytesPerSample)
		case errors.Is(derr, codec.ErrNeedMoreInput), errors.Is(derr, codec.ErrEndOfStream):
			// No output for this packet; keep pulling.
		case codec.IsFatal(derr):
			slog.Error("fatal decode fault", "err", derr)
			f.err = derr
			f.state = StatusFatal
			return StatusFatal
		default:
			f.packetsSkipped.Add(1)
			slog.Debug("dropping undecodable packet", "pts", pkt.PTS, "err", derr)
		}
	}

	for i := 0; i < frames; i++ {
		copy(out[i*f.stride:], f.queue.Pop())
	}
	f.framesPlayed.Add(int64(frames))
	f.queueDepth.Store(int64(f.queue.Len()))
	return StatusContinue
}

// flush pops every remaining whole frame into out.
func (f *Feeder) flush(out []byte) int {
	n := 0
	for f.queue.Len() > 0 && (n+1)*f.stride <= len(out) {
		copy(out[n*f.stride:], f.queue.Pop())
		n++
	}
	return n
}

// Err returns the fatal decode fault after Fill reported StatusFatal.
func (f *Feeder) Err() error {
	return f.err
}

func (f *Feeder) Stats() Stats {
	return Stats{
		FramesPlayed:   f.framesPlayed.Load(),
		PacketsRead:    f.packetsRead.Load(),
		PacketsSkipped: f.packetsSkipped.Load(),
		QueueDepth:     f.queueDepth.Load(),
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
