// ABOUTME: MP3 streaming decode session
// ABOUTME: Feeds MPEG frames through go-mp3 in send-packet/receive-output style
package codec

import (
	"fmt"
	"io"

	"github.com/ericzyf/siren/internal/media"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3 adapts go-mp3's pull-based reader to the packet decode contract. A
// goroutine runs the reader over an unbuffered pipe: it only consumes input
// while Decode is blocked writing a packet, so the pipeline stays paced by
// the caller. Early packets return ErrNeedMoreInput until the reader has
// locked onto the stream.
type MP3 struct {
	pw   *io.PipeWriter
	out  chan []byte
	done chan struct{}
	// runErr is written once before done is closed.
	runErr error
}

const mp3ReadChunk = 8192

func NewMP3(info media.StreamInfo) (*MP3, error) {
	if info.Codec != "mp3" {
		return nil, fmt.Errorf("invalid codec for mp3 decoder: %s", info.Codec)
	}
	pr, pw := io.Pipe()
	d := &MP3{
		pw:   pw,
		out:  make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go d.run(pr)
	return d, nil
}

func (d *MP3) run(pr *io.PipeReader) {
	defer close(d.done)

	dec, err := mp3.NewDecoder(pr)
	if err != nil {
		d.runErr = err
		pr.CloseWithError(err)
		return
	}

	for {
		buf := make([]byte, mp3ReadChunk)
		n, err := dec.Read(buf)
		if n > 0 {
			d.out <- buf[:n]
		}
		if err != nil {
			if err != io.EOF {
				d.runErr = err
				pr.CloseWithError(err)
			}
			return
		}
	}
}

func (d *MP3) Decode(pkt []byte) ([][]byte, error) {
	select {
	case <-d.done:
		return nil, d.terminal()
	default:
	}

	if _, err := d.pw.Write(pkt); err != nil {
		// The reader goroutine closed the pipe; wait for its verdict.
		<-d.done
		return nil, d.terminal()
	}

	row := d.drain()
	if len(row) == 0 {
		return nil, ErrNeedMoreInput
	}
	return [][]byte{row}, nil
}

func (d *MP3) terminal() error {
	if d.runErr != nil {
		return Fatal(d.runErr)
	}
	return ErrEndOfStream
}

// drain collects everything the reader has produced so far without blocking.
func (d *MP3) drain() []byte {
	var row []byte
	for {
		select {
		case b := <-d.out:
			row = append(row, b...)
		default:
			return row
		}
	}
}

// go-mp3 always emits 16-bit stereo at the source rate.
func (d *MP3) Planar() bool        { return false }
func (d *MP3) Channels() int       { return 2 }
func (d *MP3) BytesPerSample() int { return 2 }

func (d *MP3) Close() error {
	d.pw.Close()
	for {
		select {
		case <-d.out:
		case <-d.done:
			return nil
		}
	}
}
