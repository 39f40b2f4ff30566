// ABOUTME: Tests for the FLAC container session
// ABOUTME: Covers STREAMINFO parsing, header validation and frame splitting
package media

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// flacFrameHeader returns a minimal valid frame header carrying number as its
// coded frame number (fixed blocksize stream, number < 128).
func flacFrameHeader(number byte) []byte {
	hdr := []byte{
		0xFF, 0xF8, // sync, fixed blocksize
		0xC9, // blocksize 2^12, sample rate 44.1k
		0x18, // stereo, 16 bits per sample
		number,
	}
	return append(hdr, crc8(hdr))
}

// buildFLAC assembles a stream: marker, STREAMINFO, then the given frames.
func buildFLAC(t *testing.T, sampleRate, channels, bps int, frames ...[]byte) []byte {
	t.Helper()
	streamInfo := make([]byte, 34)
	packed := uint64(sampleRate)<<44 | uint64(channels-1)<<41 | uint64(bps-1)<<36
	binary.BigEndian.PutUint64(streamInfo[10:18], packed)

	var out bytes.Buffer
	out.WriteString("fLaC")
	out.Write([]byte{0x80, 0, 0, 34}) // last block, type STREAMINFO
	out.Write(streamInfo)
	for _, f := range frames {
		out.Write(f)
	}
	return out.Bytes()
}

func TestValidateFlacHeader(t *testing.T) {
	valid := flacFrameHeader(0)
	hdrLen, number, ok := validateFlacHeader(append(valid, make([]byte, 16)...))
	if !ok {
		t.Fatal("valid header rejected")
	}
	if hdrLen != 6 || number != 0 {
		t.Errorf("hdrLen = %d, number = %d; want 6, 0", hdrLen, number)
	}

	badCRC := flacFrameHeader(0)
	badCRC[len(badCRC)-1] ^= 0xFF
	if _, _, ok := validateFlacHeader(append(badCRC, make([]byte, 16)...)); ok {
		t.Error("header with broken crc accepted")
	}

	badSync := flacFrameHeader(0)
	badSync[0] = 0xFE
	if _, _, ok := validateFlacHeader(append(badSync, make([]byte, 16)...)); ok {
		t.Error("header without sync code accepted")
	}

	// Two-byte coded number: 0xC2 0x80 decodes to 128.
	multi := []byte{0xFF, 0xF8, 0xC9, 0x18, 0xC2, 0x80}
	multi = append(multi, crc8(multi))
	if _, number, ok := validateFlacHeader(append(multi, make([]byte, 16)...)); !ok || number != 128 {
		t.Errorf("multi-byte number = %d, ok = %v; want 128, true", number, ok)
	}
}

func TestFLACSessionStreamInfo(t *testing.T) {
	raw := buildFLAC(t, 44100, 2, 16)

	s, err := newFLACSession(io.NopCloser(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("newFLACSession failed: %v", err)
	}
	defer s.Close()

	info := s.Streams()[0]
	if info.Codec != "flac" || info.SampleRate != 44100 || info.Channels != 2 {
		t.Errorf("stream = %+v, want flac 44100Hz stereo", info)
	}
	if info.Format != FormatS16 {
		t.Errorf("format = %s, want s16", info.Format)
	}
	if !info.Planar {
		t.Error("flac stream not reported planar")
	}
	if !bytes.HasPrefix(info.Extradata, []byte("fLaC")) || len(info.Extradata) != 42 {
		t.Errorf("extradata = %d bytes, want fLaC marker plus streaminfo", len(info.Extradata))
	}
}

func TestFLACSessionDeepBitDepthIsS32(t *testing.T) {
	raw := buildFLAC(t, 96000, 2, 24)
	s, err := newFLACSession(io.NopCloser(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("newFLACSession failed: %v", err)
	}
	defer s.Close()
	if got := s.Streams()[0].Format; got != FormatS32 {
		t.Errorf("format = %s, want s32 for 24-bit stream", got)
	}
}

func TestFLACSessionSplitsFrames(t *testing.T) {
	frame1 := append(flacFrameHeader(0), make([]byte, 58)...)
	frame2 := append(flacFrameHeader(1), make([]byte, 26)...)
	raw := buildFLAC(t, 44100, 2, 16, frame1, frame2)

	s, err := newFLACSession(io.NopCloser(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("newFLACSession failed: %v", err)
	}
	defer s.Close()

	pkt, err := s.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if !bytes.Equal(pkt.Data, frame1) {
		t.Errorf("first packet = %d bytes, want %d", len(pkt.Data), len(frame1))
	}
	if pkt.PTS != 0 {
		t.Errorf("first PTS = %d, want 0", pkt.PTS)
	}

	pkt, err = s.ReadPacket()
	if err != nil {
		t.Fatalf("second ReadPacket failed: %v", err)
	}
	if !bytes.Equal(pkt.Data, frame2) {
		t.Errorf("second packet = %d bytes, want %d", len(pkt.Data), len(frame2))
	}
	if pkt.PTS != 1 {
		t.Errorf("second PTS = %d, want 1", pkt.PTS)
	}

	if _, err := s.ReadPacket(); err != io.EOF {
		t.Errorf("ReadPacket at end = %v, want io.EOF", err)
	}
}

func TestFLACSessionRejectsMissingStreamInfo(t *testing.T) {
	var out bytes.Buffer
	out.WriteString("fLaC")
	out.Write([]byte{0x84, 0, 0, 2, 0, 0}) // last block, type PADDING
	if _, err := newFLACSession(io.NopCloser(bytes.NewReader(out.Bytes()))); err == nil {
		t.Error("newFLACSession accepted a stream without streaminfo")
	}
}
