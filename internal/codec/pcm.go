// ABOUTME: PCM passthrough decoder
// ABOUTME: Forwards interleaved packet data as a single raw row
package codec

import (
	"fmt"

	"github.com/ericzyf/siren/internal/media"
)

// PCM is the decode session for uncompressed streams. Packets already hold
// interleaved samples, so decoding is a passthrough.
type PCM struct {
	channels       int
	bytesPerSample int
	rows           [1][]byte
}

func NewPCM(info media.StreamInfo) (*PCM, error) {
	if info.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for pcm decoder: %s", info.Codec)
	}
	bps := info.Format.BytesPerSample()
	if bps == 0 {
		return nil, fmt.Errorf("unsupported sample format: %s", info.Format)
	}
	return &PCM{channels: info.Channels, bytesPerSample: bps}, nil
}

func (d *PCM) Decode(pkt []byte) ([][]byte, error) {
	if len(pkt) == 0 {
		return nil, ErrNeedMoreInput
	}
	d.rows[0] = pkt
	return d.rows[:], nil
}

func (d *PCM) Planar() bool        { return false }
func (d *PCM) Channels() int       { return d.channels }
func (d *PCM) BytesPerSample() int { return d.bytesPerSample }

func (d *PCM) Close() error { return nil }
