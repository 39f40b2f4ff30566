// ABOUTME: Demux collaborator types and container probing
// ABOUTME: Defines packets, stream descriptions and the session interface
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SampleFormat identifies the sample encoding of a decoded stream.
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatU8                   // unsigned 8-bit
	FormatS16                  // signed 16-bit little-endian
	FormatS32                  // signed 32-bit little-endian
	FormatF32                  // 32-bit float little-endian
	FormatF64                  // 64-bit float little-endian
)

// BytesPerSample returns the width of one sample of this format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS32, FormatF32:
		return 4
	case FormatF64:
		return 8
	}
	return 0
}

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16:
		return "s16"
	case FormatS32:
		return "s32"
	case FormatF32:
		return "f32"
	case FormatF64:
		return "f64"
	}
	return "unknown"
}

// Packet is one compressed access unit read from the container. Data is
// borrowed by the decoder for the duration of a single decode call.
type Packet struct {
	StreamIndex int
	PTS         int64
	Data        []byte
}

// StreamInfo describes one elementary stream of an open session.
type StreamInfo struct {
	Index      int
	Codec      string // "pcm", "mp3", "opus", "flac"
	SampleRate int
	Channels   int
	Format     SampleFormat
	Planar     bool
	Extradata  []byte // codec-specific setup data (STREAMINFO, OpusHead)
}

// Session is an open demuxable container. ReadPacket returns io.EOF once the
// source is exhausted; that is a normal terminal condition, not an error.
type Session interface {
	Streams() []StreamInfo
	ReadPacket() (*Packet, error)
	Close() error
}

var ErrNoAudioStream = errors.New("no audio stream found")

// Open probes the file's magic bytes and returns a container session.
func Open(path string) (Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file %q: %w", path, err)
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not probe file %q: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not rewind %q: %w", path, err)
	}

	var s Session
	switch {
	case string(magic) == "RIFF":
		s, err = newWAVSession(f)
	case string(magic) == "fLaC":
		s, err = newFLACSession(f)
	case string(magic) == "OggS":
		s, err = newOggSession(f)
	case string(magic[:3]) == "ID3",
		magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		s, err = newMP3Session(f)
	case strings.EqualFold(filepath.Ext(path), ".mp3"):
		// mp3 without ID3 tag or leading sync; the framer resyncs.
		s, err = newMP3Session(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported container format in %q", path)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// SelectAudioStream picks the first audio stream of the session.
func SelectAudioStream(s Session) (StreamInfo, error) {
	for _, st := range s.Streams() {
		if st.Channels > 0 && st.SampleRate > 0 {
			return st, nil
		}
	}
	return StreamInfo{}, ErrNoAudioStream
}
