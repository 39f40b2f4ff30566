// ABOUTME: Packet decoder interface and constructor
// ABOUTME: Maps a stream's codec to its decode session
package codec

import (
	"fmt"

	"github.com/ericzyf/siren/internal/media"
)

// Decoder turns one compressed packet into zero or more raw channel buffers.
// Planar decoders emit one row per channel; interleaved decoders emit a
// single row. Rows are valid until the next Decode call.
type Decoder interface {
	Decode(pkt []byte) ([][]byte, error)
	Planar() bool
	Channels() int
	BytesPerSample() int
	Close() error
}

// New creates the decode session for a demuxed stream.
func New(info media.StreamInfo) (Decoder, error) {
	switch info.Codec {
	case "pcm":
		return NewPCM(info)
	case "mp3":
		return NewMP3(info)
	case "opus":
		return NewOpus(info)
	case "flac":
		return NewFLAC(info)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", info.Codec)
	}
}
