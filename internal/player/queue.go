// ABOUTME: FIFO queue of fixed-stride audio frames
// ABOUTME: Shared between the decode path and the playback callback
package player

// FrameQueue holds interleaved audio frames of one fixed stride. It has a
// single owner at any instant (the playback callback), so it carries no
// locking.
type FrameQueue struct {
	stride int
	frames [][]byte
	head   int
}

func NewFrameQueue(stride int) *FrameQueue {
	return &FrameQueue{stride: stride}
}

// Stride returns the byte length every queued frame must have.
func (q *FrameQueue) Stride() int {
	return q.stride
}

func (q *FrameQueue) Len() int {
	return len(q.frames) - q.head
}

// Push appends one frame. Frames of the wrong stride are refused; a short or
// long frame must never enter the queue.
func (q *FrameQueue) Push(frame []byte) bool {
	if len(frame) != q.stride {
		return false
	}
	q.frames = append(q.frames, frame)
	return true
}

// Pop removes and returns the oldest frame, or nil when empty.
func (q *FrameQueue) Pop() []byte {
	if q.Len() == 0 {
		return nil
	}
	f := q.frames[q.head]
	q.frames[q.head] = nil
	q.head++
	if q.head >= 64 && q.head*2 >= len(q.frames) {
		n := copy(q.frames, q.frames[q.head:])
		q.frames = q.frames[:n]
		q.head = 0
	}
	return f
}
