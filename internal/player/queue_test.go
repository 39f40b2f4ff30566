// ABOUTME: Tests for the frame queue
// ABOUTME: Covers stride enforcement, FIFO order and compaction
package player

import (
	"bytes"
	"fmt"
	"testing"
)

func TestQueueRejectsWrongStride(t *testing.T) {
	q := NewFrameQueue(4)
	if q.Push([]byte("abc")) {
		t.Error("Push accepted a short frame")
	}
	if q.Push([]byte("abcde")) {
		t.Error("Push accepted a long frame")
	}
	if !q.Push([]byte("abcd")) {
		t.Error("Push refused a correct frame")
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	q := NewFrameQueue(2)
	for i := 0; i < 10; i++ {
		q.Push([]byte(fmt.Sprintf("%02d", i)))
	}
	for i := 0; i < 10; i++ {
		want := fmt.Sprintf("%02d", i)
		if got := q.Pop(); !bytes.Equal(got, []byte(want)) {
			t.Fatalf("Pop %d = %q, want %q", i, got, want)
		}
	}
	if q.Pop() != nil {
		t.Error("Pop on empty queue returned a frame")
	}
}

func TestQueueCompaction(t *testing.T) {
	// Interleave pushes and pops past the compaction threshold and check
	// order survives.
	q := NewFrameQueue(2)
	next, expect := 0, 0
	for round := 0; round < 50; round++ {
		for i := 0; i < 10; i++ {
			q.Push([]byte(fmt.Sprintf("%02d", next%100)))
			next++
		}
		for i := 0; i < 10; i++ {
			want := fmt.Sprintf("%02d", expect%100)
			if got := q.Pop(); !bytes.Equal(got, []byte(want)) {
				t.Fatalf("round %d: Pop = %q, want %q", round, got, want)
			}
			expect++
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after draining, want 0", q.Len())
	}
}
