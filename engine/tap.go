package engine

import "sync/atomic"

// TapFrames is the length of the output history kept for analysis.
const TapFrames = 1024

// outputTap keeps the last TapFrames output frames. Each frame is packed
// into one atomic word, so a reader sees whole frames, though a copy may
// straddle two callbacks.
type outputTap struct {
	frames [TapFrames]atomic.Uint32
	pos    atomic.Uint32
}

func (t *outputTap) capture(buf []int16) {
	pos := t.pos.Load()

	for i := 0; i+1 < len(buf); i += 2 {
		t.frames[pos%TapFrames].Store(uint32(uint16(buf[i])) | uint32(uint16(buf[i+1]))<<16)
		pos++
	}

	t.pos.Store(pos)
}

// copyTo fills dst, oldest first, with interleaved frames. It copies
// min(len(dst)/2, TapFrames) frames and returns the sample count.
func (t *outputTap) copyTo(dst []int16) int {
	n := min(len(dst)/2, TapFrames)
	pos := t.pos.Load() - uint32(n)

	for i := 0; i < n; i++ {
		v := t.frames[(pos+uint32(i))%TapFrames].Load()
		dst[2*i] = int16(uint16(v))
		dst[2*i+1] = int16(uint16(v >> 16))
	}

	return 2 * n
}
