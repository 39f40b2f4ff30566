// ABOUTME: Tests for the Ogg Opus session
// ABOUTME: Covers page parsing, lacing, continuation and header validation
package media

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// buildOggPage assembles one page. Packets of 255 bytes or more are laced
// across multiple segments; a trailing nil packet marker is not supported, so
// pass rawTail to leave an unterminated fragment on the page.
func buildOggPage(serial uint32, granule int64, continued bool, packets [][]byte, rawTail []byte) []byte {
	var lacing []byte
	var body bytes.Buffer
	for _, pkt := range packets {
		rest := pkt
		for len(rest) >= 255 {
			lacing = append(lacing, 255)
			rest = rest[255:]
		}
		lacing = append(lacing, byte(len(rest)))
		body.Write(pkt)
	}
	if rawTail != nil {
		for rest := len(rawTail); rest > 0; rest -= 255 {
			lacing = append(lacing, 255)
		}
		body.Write(rawTail)
	}

	var out bytes.Buffer
	out.WriteString("OggS")
	out.WriteByte(0) // version
	var flags byte
	if continued {
		flags |= 0x01
	}
	out.WriteByte(flags)
	binary.Write(&out, binary.LittleEndian, uint64(granule))
	binary.Write(&out, binary.LittleEndian, serial)
	binary.Write(&out, binary.LittleEndian, uint32(0)) // page sequence
	binary.Write(&out, binary.LittleEndian, uint32(0)) // checksum, unchecked
	out.WriteByte(byte(len(lacing)))
	out.Write(lacing)
	out.Write(body.Bytes())
	return out.Bytes()
}

func opusHead(channels byte) []byte {
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1 // version
	head[9] = channels
	binary.LittleEndian.PutUint32(head[12:16], 48000)
	return head
}

func opusTags() []byte {
	tags := make([]byte, 16)
	copy(tags, "OpusTags")
	return tags
}

func TestOggSessionOpusStream(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(buildOggPage(7, 0, false, [][]byte{opusHead(2)}, nil))
	stream.Write(buildOggPage(7, 0, false, [][]byte{opusTags()}, nil))
	stream.Write(buildOggPage(7, 960, false, [][]byte{{0xFC, 1, 2}, {0xFC, 3, 4}}, nil))

	s, err := newOggSession(io.NopCloser(&stream))
	if err != nil {
		t.Fatalf("newOggSession failed: %v", err)
	}
	defer s.Close()

	info := s.Streams()[0]
	if info.Codec != "opus" || info.SampleRate != 48000 || info.Channels != 2 {
		t.Errorf("stream = %+v, want opus 48000Hz stereo", info)
	}
	if !bytes.HasPrefix(info.Extradata, []byte("OpusHead")) {
		t.Error("extradata does not carry the opus header")
	}

	pkt, err := s.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if !bytes.Equal(pkt.Data, []byte{0xFC, 1, 2}) {
		t.Errorf("first packet = %v", pkt.Data)
	}
	pkt, err = s.ReadPacket()
	if err != nil {
		t.Fatalf("second ReadPacket failed: %v", err)
	}
	if !bytes.Equal(pkt.Data, []byte{0xFC, 3, 4}) {
		t.Errorf("second packet = %v", pkt.Data)
	}
	if _, err := s.ReadPacket(); err != io.EOF {
		t.Errorf("ReadPacket at end = %v, want io.EOF", err)
	}
}

func TestOggSessionPacketSpanningPages(t *testing.T) {
	big := make([]byte, 300)
	for i := range big {
		big[i] = byte(i)
	}

	var stream bytes.Buffer
	stream.Write(buildOggPage(7, 0, false, [][]byte{opusHead(1)}, nil))
	stream.Write(buildOggPage(7, 0, false, [][]byte{opusTags()}, nil))
	// First 255 bytes end the page as an unterminated fragment; the rest
	// arrives on a continued page.
	stream.Write(buildOggPage(7, 0, false, nil, big[:255]))
	stream.Write(buildOggPage(7, 960, true, [][]byte{big[255:]}, nil))

	s, err := newOggSession(io.NopCloser(&stream))
	if err != nil {
		t.Fatalf("newOggSession failed: %v", err)
	}
	defer s.Close()

	pkt, err := s.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if !bytes.Equal(pkt.Data, big) {
		t.Errorf("reassembled packet = %d bytes, want %d", len(pkt.Data), len(big))
	}
}

func TestOggSessionSkipsForeignSerial(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(buildOggPage(7, 0, false, [][]byte{opusHead(2)}, nil))
	stream.Write(buildOggPage(99, 0, false, [][]byte{{0xDE, 0xAD}}, nil))
	stream.Write(buildOggPage(7, 0, false, [][]byte{opusTags()}, nil))
	stream.Write(buildOggPage(7, 960, false, [][]byte{{0xFC, 1}}, nil))

	s, err := newOggSession(io.NopCloser(&stream))
	if err != nil {
		t.Fatalf("newOggSession failed: %v", err)
	}
	defer s.Close()

	pkt, err := s.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if !bytes.Equal(pkt.Data, []byte{0xFC, 1}) {
		t.Errorf("packet = %v, foreign page leaked through", pkt.Data)
	}
}

func TestOggSessionRejectsNonOpus(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(buildOggPage(7, 0, false, [][]byte{[]byte("vorbis-ish header")}, nil))

	if _, err := newOggSession(io.NopCloser(&stream)); err == nil {
		t.Error("newOggSession accepted a non-opus stream")
	}
}
