// ABOUTME: FLAC container session
// ABOUTME: Walks metadata blocks and splits the stream into encoded frames
package media

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	flacFillChunk = 32 << 10
	// Longest possible frame header: sync + blocking info (2), block
	// size/rate byte, channel/size byte, 7-byte coded number, 2 block size
	// bytes, 2 sample rate bytes, CRC-8.
	flacMaxHeaderLen = 16
)

type flacSession struct {
	r    io.Reader
	c    io.Closer
	info StreamInfo

	buf []byte // window holding the current frame and lookahead
	eof bool
	pts int64
}

func newFLACSession(f io.ReadCloser) (*flacSession, error) {
	s := &flacSession{r: f, c: f}

	var marker [4]byte
	if _, err := io.ReadFull(s.r, marker[:]); err != nil || string(marker[:]) != "fLaC" {
		return nil, fmt.Errorf("not a flac stream")
	}

	var streamInfo []byte
	for {
		var hdr [4]byte
		if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
			return nil, fmt.Errorf("truncated flac metadata: %w", err)
		}
		last := hdr[0]&0x80 != 0
		blockType := hdr[0] & 0x7F
		size := int(hdr[1])<<16 | int(hdr[2])<<8 | int(hdr[3])

		body := make([]byte, size)
		if _, err := io.ReadFull(s.r, body); err != nil {
			return nil, fmt.Errorf("truncated flac metadata block: %w", err)
		}
		if blockType == 0 {
			streamInfo = body
		}
		if last {
			break
		}
	}
	if len(streamInfo) != 34 {
		return nil, fmt.Errorf("missing flac streaminfo block")
	}

	// STREAMINFO packs sample rate (20 bits), channels-1 (3 bits) and
	// bits-per-sample-1 (5 bits) after the block and frame size fields.
	packed := binary.BigEndian.Uint64(streamInfo[10:18])
	sampleRate := int(packed >> 44)
	channels := int(packed>>41&0x7) + 1
	bps := int(packed>>36&0x1F) + 1
	if sampleRate == 0 {
		return nil, fmt.Errorf("flac streaminfo declares zero sample rate")
	}

	format := FormatS16
	if bps > 16 {
		format = FormatS32
	}

	// The decoder reconstructs its session from the marker plus a lone
	// STREAMINFO block.
	extra := make([]byte, 0, 8+len(streamInfo))
	extra = append(extra, 'f', 'L', 'a', 'C', 0x80, 0x00, 0x00, 34)
	extra = append(extra, streamInfo...)

	s.info = StreamInfo{
		Index:      0,
		Codec:      "flac",
		SampleRate: sampleRate,
		Channels:   channels,
		Format:     format,
		Planar:     true,
		Extradata:  extra,
	}
	return s, nil
}

// crc8 is the CRC-8 (polynomial 0x07) used over flac frame headers.
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// validateFlacHeader checks whether b starts a plausible frame header and
// returns the header length and the coded frame/sample number.
func validateFlacHeader(b []byte) (hdrLen int, number int64, ok bool) {
	if len(b) < 5 {
		return 0, 0, false
	}
	if b[0] != 0xFF || b[1]&0xFE != 0xF8 {
		return 0, 0, false
	}
	bsCode := b[2] >> 4
	srCode := b[2] & 0x0F
	chCode := b[3] >> 4
	ssCode := (b[3] >> 1) & 0x7
	if bsCode == 0 || srCode == 15 || chCode > 10 || ssCode == 3 || ssCode == 7 || b[3]&1 != 0 {
		return 0, 0, false
	}

	// UTF-8 style coded frame/sample number.
	n := 4
	c := b[n]
	var extra int
	switch {
	case c&0x80 == 0:
		extra = 0
		number = int64(c)
	case c&0xE0 == 0xC0:
		extra = 1
		number = int64(c & 0x1F)
	case c&0xF0 == 0xE0:
		extra = 2
		number = int64(c & 0x0F)
	case c&0xF8 == 0xF0:
		extra = 3
		number = int64(c & 0x07)
	case c&0xFC == 0xF8:
		extra = 4
		number = int64(c & 0x03)
	case c&0xFE == 0xFC:
		extra = 5
		number = int64(c & 0x01)
	case c == 0xFE:
		extra = 6
	default:
		return 0, 0, false
	}
	n++
	if len(b) < n+extra {
		return 0, 0, false
	}
	for i := 0; i < extra; i++ {
		if b[n]&0xC0 != 0x80 {
			return 0, 0, false
		}
		number = number<<6 | int64(b[n]&0x3F)
		n++
	}

	switch bsCode {
	case 6:
		n++
	case 7:
		n += 2
	}
	switch srCode {
	case 12:
		n++
	case 13, 14:
		n += 2
	}
	if len(b) < n+1 {
		return 0, 0, false
	}
	if crc8(b[:n]) != b[n] {
		return 0, 0, false
	}
	return n + 1, number, true
}

// fill grows the window by one chunk.
func (s *flacSession) fill() error {
	if s.eof {
		return io.EOF
	}
	chunk := make([]byte, flacFillChunk)
	n, err := s.r.Read(chunk)
	if n > 0 {
		s.buf = append(s.buf, chunk[:n]...)
	}
	if err != nil {
		s.eof = true
	}
	return nil
}

func (s *flacSession) Streams() []StreamInfo {
	return []StreamInfo{s.info}
}

// ReadPacket emits one encoded frame per packet, found by scanning for the
// next header whose sync code, reserved bits and CRC-8 all check out.
func (s *flacSession) ReadPacket() (*Packet, error) {
	for len(s.buf) < flacMaxHeaderLen && !s.eof {
		if err := s.fill(); err != nil {
			break
		}
	}
	if len(s.buf) == 0 {
		return nil, io.EOF
	}

	if _, number, ok := validateFlacHeader(s.buf); ok {
		s.pts = number
	}

	// Scan past the current header for the start of the next frame.
	i := 5
	for {
		if i+flacMaxHeaderLen > len(s.buf) {
			if s.eof {
				// Last frame of the stream.
				data := s.buf
				s.buf = nil
				return &Packet{StreamIndex: 0, PTS: s.pts, Data: data}, nil
			}
			if err := s.fill(); err != nil {
				continue
			}
			continue
		}
		if s.buf[i] == 0xFF && s.buf[i+1]&0xFE == 0xF8 {
			if _, _, ok := validateFlacHeader(s.buf[i:]); ok {
				data := make([]byte, i)
				copy(data, s.buf[:i])
				s.buf = s.buf[i:]
				return &Packet{StreamIndex: 0, PTS: s.pts, Data: data}, nil
			}
		}
		i++
	}
}

func (s *flacSession) Close() error {
	return s.c.Close()
}
