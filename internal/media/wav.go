// ABOUTME: RIFF/WAVE container session
// ABOUTME: Walks chunks and emits fixed-size interleaved PCM packets
package media

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	waveFormatPCM        = 0x0001
	waveFormatIEEEFloat  = 0x0003
	waveFormatExtensible = 0xFFFE

	// frames per demux packet
	wavPacketFrames = 4096
)

type wavSession struct {
	r    *bufio.Reader
	c    io.Closer
	info StreamInfo

	blockAlign int
	remaining  int64 // bytes left in the data chunk
	pos        int64 // frames consumed so far
}

func newWAVSession(f io.ReadCloser) (*wavSession, error) {
	s := &wavSession{r: bufio.NewReader(f), c: f}

	var riff [12]byte
	if _, err := io.ReadFull(s.r, riff[:]); err != nil {
		return nil, fmt.Errorf("short riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a wave file")
	}

	var (
		formatTag     uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		haveFmt       bool
	)

	// Chunk walk up to the data chunk. Unknown chunks (LIST, fact, ...) are
	// skipped, honoring the RIFF padding byte on odd sizes.
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
			return nil, fmt.Errorf("missing data chunk: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short (%d bytes)", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(s.r, body); err != nil {
				return nil, fmt.Errorf("short fmt chunk: %w", err)
			}
			formatTag = binary.LittleEndian.Uint16(body[0:2])
			channels = binary.LittleEndian.Uint16(body[2:4])
			sampleRate = binary.LittleEndian.Uint32(body[4:8])
			s.blockAlign = int(binary.LittleEndian.Uint16(body[12:14]))
			bitsPerSample = binary.LittleEndian.Uint16(body[14:16])
			if formatTag == waveFormatExtensible {
				if size < 40 {
					return nil, fmt.Errorf("extensible fmt chunk too short (%d bytes)", size)
				}
				// First two bytes of the SubFormat GUID carry the real tag.
				formatTag = binary.LittleEndian.Uint16(body[24:26])
			}
			if size%2 == 1 {
				if _, err := s.r.Discard(1); err != nil {
					return nil, fmt.Errorf("short fmt padding: %w", err)
				}
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			s.remaining = int64(size)
			goto done
		default:
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, s.r, skip); err != nil {
				return nil, fmt.Errorf("could not skip %q chunk: %w", id, err)
			}
		}
	}
done:

	format, err := wavSampleFormat(formatTag, bitsPerSample)
	if err != nil {
		return nil, err
	}
	if channels == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("invalid wave stream: %d channels, %d Hz", channels, sampleRate)
	}
	if s.blockAlign == 0 {
		s.blockAlign = int(channels) * format.BytesPerSample()
	}

	s.info = StreamInfo{
		Index:      0,
		Codec:      "pcm",
		SampleRate: int(sampleRate),
		Channels:   int(channels),
		Format:     format,
	}
	return s, nil
}

func wavSampleFormat(tag, bits uint16) (SampleFormat, error) {
	switch tag {
	case waveFormatPCM:
		switch bits {
		case 8:
			return FormatU8, nil
		case 16:
			return FormatS16, nil
		case 32:
			return FormatS32, nil
		}
	case waveFormatIEEEFloat:
		switch bits {
		case 32:
			return FormatF32, nil
		case 64:
			return FormatF64, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unsupported wave format: tag %#04x, %d bits", tag, bits)
}

func (s *wavSession) Streams() []StreamInfo {
	return []StreamInfo{s.info}
}

func (s *wavSession) ReadPacket() (*Packet, error) {
	if s.remaining < int64(s.blockAlign) {
		return nil, io.EOF
	}

	want := int64(wavPacketFrames * s.blockAlign)
	if want > s.remaining {
		want = s.remaining
	}
	buf := make([]byte, want)
	n, err := io.ReadFull(s.r, buf)
	// Keep whole frames only; a truncated data chunk drops its tail.
	n -= n % s.blockAlign
	if n == 0 {
		return nil, io.EOF
	}
	s.remaining -= int64(n)
	if err != nil {
		s.remaining = 0
	}

	pkt := &Packet{StreamIndex: 0, PTS: s.pos, Data: buf[:n]}
	s.pos += int64(n / s.blockAlign)
	return pkt, nil
}

func (s *wavSession) Close() error {
	return s.c.Close()
}
