// ABOUTME: Sample repacker
// ABOUTME: Normalizes decoded rows into fixed-stride interleaved frames
package player

// Repack turns one decoded unit into audio frames on q and reports how many
// frames it pushed. Planar input holds one row per channel and is transposed
// sample by sample; interleaved input is a single row sliced at the frame
// stride. A trailing remainder shorter than one stride is dropped — a short
// frame never enters the queue.
func Repack(q *FrameQueue, rows [][]byte, planar bool, channels, bytesPerSample int) int {
	if len(rows) == 0 {
		return 0
	}
	if planar && channels > 1 {
		return repackPlanar(q, rows, channels, bytesPerSample)
	}
	return repackInterleaved(q, rows[0], channels*bytesPerSample)
}

func repackPlanar(q *FrameQueue, rows [][]byte, channels, bytesPerSample int) int {
	if len(rows) < channels {
		return 0
	}
	// Rows of one decoded unit share a nominal sample count; truncate to the
	// shortest so no frame ever reads past a row.
	limit := len(rows[0])
	for _, row := range rows[1:channels] {
		if len(row) < limit {
			limit = len(row)
		}
	}

	stride := channels * bytesPerSample
	pushed := 0
	for off := 0; off+bytesPerSample <= limit; off += bytesPerSample {
		frame := make([]byte, stride)
		for ch := 0; ch < channels; ch++ {
			copy(frame[ch*bytesPerSample:], rows[ch][off:off+bytesPerSample])
		}
		if q.Push(frame) {
			pushed++
		}
	}
	return pushed
}

func repackInterleaved(q *FrameQueue, row []byte, stride int) int {
	pushed := 0
	for off := 0; off+stride <= len(row); off += stride {
		frame := make([]byte, stride)
		copy(frame, row[off:off+stride])
		if q.Push(frame) {
			pushed++
		}
	}
	return pushed
}
