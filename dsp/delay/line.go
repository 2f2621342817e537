// Package delay provides a stereo circular delay line over caller-owned
// int16 memory.
package delay

import (
	"errors"
	"fmt"
)

// FracBits is the number of fractional bits in the delay argument of
// ReadFrac.
const FracBits = 16

// ErrTooShort is returned when the backing memory cannot hold two frames.
var ErrTooShort = errors.New("delay: memory too short")

// Line is a circular delay line of interleaved stereo frames. The memory is
// supplied by the caller so effect instances can place it in the arena.
type Line struct {
	buffer   []int16
	frames   int
	writePos int
}

// New returns a delay line over mem. An odd trailing sample is left unused.
// The memory is cleared.
func New(mem []int16) (*Line, error) {
	frames := len(mem) / 2
	if frames < 2 {
		return nil, fmt.Errorf("%w: %d samples", ErrTooShort, len(mem))
	}

	d := &Line{buffer: mem[:2*frames], frames: frames}
	d.Reset()

	return d, nil
}

// Frames returns the capacity in stereo frames. This is also the longest
// delay Read can return.
func (d *Line) Frames() int {
	return d.frames
}

// Write appends one stereo frame.
func (d *Line) Write(l, r int16) {
	d.buffer[2*d.writePos] = l
	d.buffer[2*d.writePos+1] = r

	d.writePos++
	if d.writePos >= d.frames {
		d.writePos = 0
	}
}

// Read returns the frame written delay frames ago. Read(1) is the most
// recent Write. The delay is clamped to [1, Frames].
func (d *Line) Read(delay int) (l, r int16) {
	delay = max(1, min(delay, d.frames))

	pos := d.writePos - delay
	if pos < 0 {
		pos += d.frames
	}

	return d.buffer[2*pos], d.buffer[2*pos+1]
}

// ReadFrac reads with linear interpolation. delay is in frames with
// FracBits fractional bits and is clamped so both taps stay in range.
func (d *Line) ReadFrac(delay int32) (l, r int16) {
	whole := int(delay >> FracBits)
	frac := delay & (1<<FracBits - 1)

	if whole < 1 {
		whole, frac = 1, 0
	}

	if whole >= d.frames {
		whole, frac = d.frames-1, 1<<FracBits-1
	}

	l0, r0 := d.Read(whole)
	l1, r1 := d.Read(whole + 1)

	return lerp(l0, l1, frac), lerp(r0, r1, frac)
}

// Reset clears the line.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}

func lerp(a, b int16, frac int32) int16 {
	return int16(int32(a) + ((int32(b)-int32(a))*frac)>>FracBits)
}
