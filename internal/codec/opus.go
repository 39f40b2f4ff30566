// ABOUTME: Opus packet decoder
// ABOUTME: Wraps libopus via hraban/opus for interleaved 16-bit output
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/ericzyf/siren/internal/media"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrameSamples is the longest Opus frame: 120ms at 48kHz.
const maxOpusFrameSamples = 5760

// Opus decodes one Opus packet per call into a single interleaved s16 row.
type Opus struct {
	dec      *opus.Decoder
	channels int
	pcm      []int16
}

func NewOpus(info media.StreamInfo) (*Opus, error) {
	if info.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for opus decoder: %s", info.Codec)
	}
	dec, err := opus.NewDecoder(info.SampleRate, info.Channels)
	if err != nil {
		return nil, fmt.Errorf("could not create opus decoder: %w", err)
	}
	return &Opus{
		dec:      dec,
		channels: info.Channels,
		pcm:      make([]int16, maxOpusFrameSamples*info.Channels),
	}, nil
}

func (d *Opus) Decode(pkt []byte) ([][]byte, error) {
	if len(pkt) == 0 {
		return nil, ErrNeedMoreInput
	}

	n, err := d.dec.Decode(pkt, d.pcm)
	if err != nil {
		return nil, Skip(err)
	}
	if n == 0 {
		return nil, ErrNeedMoreInput
	}

	row := make([]byte, n*d.channels*2)
	for i, s := range d.pcm[:n*d.channels] {
		binary.LittleEndian.PutUint16(row[i*2:], uint16(s))
	}
	return [][]byte{row}, nil
}

func (d *Opus) Planar() bool        { return false }
func (d *Opus) Channels() int       { return d.channels }
func (d *Opus) BytesPerSample() int { return 2 }

func (d *Opus) Close() error { return nil }
