// ABOUTME: Ogg Opus container session
// ABOUTME: Parses pages and lacing into one demux packet per Opus packet
package media

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
)

// opusSampleRate is the fixed Opus decoder output rate; the OpusHead input
// rate is informational only.
const opusSampleRate = 48000

type oggSession struct {
	r    *bufio.Reader
	c    io.Closer
	info StreamInfo

	serial     uint32
	haveSerial bool
	pending    [][]byte // complete packets from the current page
	partial    []byte   // packet continued onto the next page
	granule    int64
	pts        int64
}

type oggPage struct {
	granule   int64
	serial    uint32
	continued bool     // first segment continues the previous page's packet
	packets   [][]byte // complete packets on this page
	tail      []byte   // trailing fragment continued on the next page
}

func readOggPage(r *bufio.Reader) (*oggPage, error) {
	var hdr [27]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, io.EOF
	}
	if string(hdr[0:4]) != "OggS" || hdr[4] != 0 {
		return nil, fmt.Errorf("bad ogg page header")
	}

	p := &oggPage{
		continued: hdr[5]&0x01 != 0,
		granule:   int64(binary.LittleEndian.Uint64(hdr[6:14])),
		serial:    binary.LittleEndian.Uint32(hdr[14:18]),
	}

	nsegs := int(hdr[26])
	lacing := make([]byte, nsegs)
	if _, err := io.ReadFull(r, lacing); err != nil {
		return nil, fmt.Errorf("truncated ogg lacing table: %w", err)
	}

	var cur []byte
	for _, lace := range lacing {
		seg := make([]byte, lace)
		if _, err := io.ReadFull(r, seg); err != nil {
			return nil, fmt.Errorf("truncated ogg page body: %w", err)
		}
		cur = append(cur, seg...)
		if lace < 255 {
			p.packets = append(p.packets, cur)
			cur = nil
		}
	}
	p.tail = cur
	return p, nil
}

func newOggSession(f io.ReadCloser) (*oggSession, error) {
	s := &oggSession{r: bufio.NewReaderSize(f, 64<<10), c: f}

	head, err := s.nextPacket()
	if err != nil {
		return nil, fmt.Errorf("could not read ogg stream header: %w", err)
	}
	if len(head) < 19 || string(head[0:8]) != "OpusHead" {
		return nil, fmt.Errorf("unsupported ogg stream (only opus is supported)")
	}
	if head[8] != 1 {
		return nil, fmt.Errorf("unsupported opus header version %d", head[8])
	}
	channels := int(head[9])
	if channels == 0 {
		return nil, fmt.Errorf("opus header declares zero channels")
	}

	tags, err := s.nextPacket()
	if err != nil {
		return nil, fmt.Errorf("could not read opus comment header: %w", err)
	}
	if len(tags) < 8 || string(tags[0:8]) != "OpusTags" {
		return nil, fmt.Errorf("missing opus comment header")
	}

	s.info = StreamInfo{
		Index:      0,
		Codec:      "opus",
		SampleRate: opusSampleRate,
		Channels:   channels,
		Format:     FormatS16,
		Extradata:  head,
	}
	return s, nil
}

// nextPacket returns the next logical packet, reading pages as needed.
func (s *oggSession) nextPacket() ([]byte, error) {
	for {
		if len(s.pending) > 0 {
			pkt := s.pending[0]
			s.pending = s.pending[1:]
			return pkt, nil
		}

		page, err := readOggPage(s.r)
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if !s.haveSerial {
			// First page of the stream fixes the serial we follow.
			s.serial = page.serial
			s.haveSerial = true
		} else if page.serial != s.serial {
			slog.Debug("skipping ogg page from foreign stream", "serial", page.serial)
			continue
		}

		packets := page.packets
		if s.partial != nil {
			if page.continued && len(packets) > 0 {
				packets[0] = append(s.partial, packets[0]...)
			} else if page.continued && len(packets) == 0 {
				page.tail = append(s.partial, page.tail...)
			}
			s.partial = nil
		}
		s.partial = page.tail
		s.granule = page.granule
		s.pending = packets
	}
}

func (s *oggSession) Streams() []StreamInfo {
	return []StreamInfo{s.info}
}

func (s *oggSession) ReadPacket() (*Packet, error) {
	data, err := s.nextPacket()
	if err != nil {
		return nil, io.EOF
	}
	pkt := &Packet{StreamIndex: 0, PTS: s.pts, Data: data}
	s.pts = s.granule
	return pkt, nil
}

func (s *oggSession) Close() error {
	return s.c.Close()
}
