// ABOUTME: FLAC frame decode session
// ABOUTME: Feeds encoded frames into mewkiz/flac and emits planar rows
package codec

import (
	"bytes"
	"fmt"

	"github.com/ericzyf/siren/internal/media"
	"github.com/mewkiz/flac"
)

// FLAC decodes one encoded frame per packet. The session is primed with the
// stream marker and STREAMINFO reconstructed by the demuxer, so the library
// sees a well-formed stream whose audio frames arrive packet by packet.
// Subframes come out per channel, which makes this the planar decode path.
type FLAC struct {
	buf            bytes.Buffer
	stream         *flac.Stream
	channels       int
	bytesPerSample int
	shift          uint // left shift to fill the output container
}

func NewFLAC(info media.StreamInfo) (*FLAC, error) {
	if info.Codec != "flac" {
		return nil, fmt.Errorf("invalid codec for flac decoder: %s", info.Codec)
	}
	if len(info.Extradata) == 0 {
		return nil, fmt.Errorf("missing flac stream setup data")
	}

	d := &FLAC{channels: info.Channels}
	d.buf.Write(info.Extradata)

	stream, err := flac.New(&d.buf)
	if err != nil {
		return nil, fmt.Errorf("could not initialize flac decoder: %w", err)
	}
	d.stream = stream

	bps := int(stream.Info.BitsPerSample)
	if bps <= 16 {
		d.bytesPerSample = 2
		d.shift = uint(16 - bps)
	} else {
		d.bytesPerSample = 4
		d.shift = uint(32 - bps)
	}
	return d, nil
}

func (d *FLAC) Decode(pkt []byte) ([][]byte, error) {
	if len(pkt) == 0 {
		return nil, ErrNeedMoreInput
	}
	d.buf.Write(pkt)

	f, err := d.stream.ParseNext()
	if err != nil {
		// A mis-framed or corrupt frame; drop whatever is left of it.
		d.buf.Reset()
		return nil, Skip(err)
	}

	n := int(f.Header.BlockSize)
	rows := make([][]byte, len(f.Subframes))
	for ch, sub := range f.Subframes {
		row := make([]byte, n*d.bytesPerSample)
		samples := sub.Samples
		if len(samples) < n {
			n = len(samples)
			row = row[:n*d.bytesPerSample]
		}
		if d.bytesPerSample == 2 {
			for i := 0; i < n; i++ {
				v := samples[i] << d.shift
				row[i*2] = byte(v)
				row[i*2+1] = byte(v >> 8)
			}
		} else {
			for i := 0; i < n; i++ {
				v := samples[i] << d.shift
				row[i*4] = byte(v)
				row[i*4+1] = byte(v >> 8)
				row[i*4+2] = byte(v >> 16)
				row[i*4+3] = byte(v >> 24)
			}
		}
		rows[ch] = row
	}
	return rows, nil
}

func (d *FLAC) Planar() bool        { return true }
func (d *FLAC) Channels() int       { return d.channels }
func (d *FLAC) BytesPerSample() int { return d.bytesPerSample }

func (d *FLAC) Close() error { return nil }
