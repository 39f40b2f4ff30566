// ABOUTME: MPEG audio elementary stream session
// ABOUTME: Skips ID3 tags and splits the stream into one packet per MPEG frame
package media

import (
	"bufio"
	"fmt"
	"io"
)

type mp3Session struct {
	r    *bufio.Reader
	c    io.Closer
	info StreamInfo
	pts  int64 // samples at the source rate
}

// Layer III bitrates in kbit/s, indexed by the header bitrate field.
var mp3BitrateV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
var mp3BitrateV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}

var mp3SampleRateV1 = [4]int{44100, 48000, 32000, 0}
var mp3SampleRateV2 = [4]int{22050, 24000, 16000, 0}
var mp3SampleRateV25 = [4]int{11025, 12000, 8000, 0}

type mp3FrameHeader struct {
	frameLen        int
	sampleRate      int
	samplesPerFrame int
}

func parseMP3FrameHeader(b []byte) (mp3FrameHeader, bool) {
	var h mp3FrameHeader
	if len(b) < 4 {
		return h, false
	}
	if b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return h, false
	}
	version := (b[1] >> 3) & 0x3 // 0: MPEG2.5, 2: MPEG2, 3: MPEG1
	layer := (b[1] >> 1) & 0x3   // 1: layer III
	if version == 1 || layer != 1 {
		return h, false
	}
	bitrateIdx := b[2] >> 4
	srIdx := (b[2] >> 2) & 0x3
	padding := int((b[2] >> 1) & 1)
	if bitrateIdx == 0 || bitrateIdx == 15 || srIdx == 3 {
		return h, false
	}

	var bitrate int
	switch version {
	case 3:
		bitrate = mp3BitrateV1[bitrateIdx] * 1000
		h.sampleRate = mp3SampleRateV1[srIdx]
		h.samplesPerFrame = 1152
	case 2:
		bitrate = mp3BitrateV2[bitrateIdx] * 1000
		h.sampleRate = mp3SampleRateV2[srIdx]
		h.samplesPerFrame = 576
	default:
		bitrate = mp3BitrateV2[bitrateIdx] * 1000
		h.sampleRate = mp3SampleRateV25[srIdx]
		h.samplesPerFrame = 576
	}

	h.frameLen = h.samplesPerFrame/8*bitrate/h.sampleRate + padding
	if h.frameLen < 4 {
		return h, false
	}
	return h, true
}

func newMP3Session(f io.ReadCloser) (*mp3Session, error) {
	s := &mp3Session{r: bufio.NewReaderSize(f, 32<<10), c: f}

	if err := s.skipID3(); err != nil {
		return nil, err
	}
	hdr, err := s.sync()
	if err != nil {
		return nil, fmt.Errorf("no mpeg audio frame found: %w", err)
	}

	// The frame header carries the channel mode, but go-mp3 always emits
	// 16-bit stereo regardless of the source mode.
	s.info = StreamInfo{
		Index:      0,
		Codec:      "mp3",
		SampleRate: hdr.sampleRate,
		Channels:   2,
		Format:     FormatS16,
	}
	return s, nil
}

// skipID3 discards a leading ID3v2 tag if present.
func (s *mp3Session) skipID3() error {
	head, err := s.r.Peek(10)
	if err != nil || string(head[0:3]) != "ID3" {
		return nil
	}
	// Syncsafe 28-bit tag size, not counting the 10-byte header.
	size := int(head[6]&0x7F)<<21 | int(head[7]&0x7F)<<14 | int(head[8]&0x7F)<<7 | int(head[9]&0x7F)
	if _, err := s.r.Discard(10 + size); err != nil {
		return fmt.Errorf("truncated id3 tag: %w", err)
	}
	return nil
}

// sync advances the reader to the next valid frame header without consuming it.
func (s *mp3Session) sync() (mp3FrameHeader, error) {
	for {
		b, err := s.r.Peek(4)
		if err != nil {
			return mp3FrameHeader{}, io.EOF
		}
		if hdr, ok := parseMP3FrameHeader(b); ok {
			return hdr, nil
		}
		if _, err := s.r.Discard(1); err != nil {
			return mp3FrameHeader{}, io.EOF
		}
	}
}

func (s *mp3Session) Streams() []StreamInfo {
	return []StreamInfo{s.info}
}

func (s *mp3Session) ReadPacket() (*Packet, error) {
	hdr, err := s.sync()
	if err != nil {
		return nil, io.EOF
	}

	buf := make([]byte, hdr.frameLen)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		// Trailing partial frame is dropped.
		return nil, io.EOF
	}

	pkt := &Packet{StreamIndex: 0, PTS: s.pts, Data: buf}
	s.pts += int64(hdr.samplesPerFrame)
	return pkt, nil
}

func (s *mp3Session) Close() error {
	return s.c.Close()
}
