package hostaudio

import (
	"encoding/binary"
	"sync/atomic"
)

// BytesPerFrame is the size of one interleaved 16-bit stereo frame.
const BytesPerFrame = 4

// Processor is the buffer-ready callback.
type Processor interface {
	Process(dst, src []int16)
}

// Stream is an io.Reader producing processed audio. Reads of any size are
// served from whole callback buffers; a partly consumed buffer carries over
// to the next Read. Read never allocates.
type Stream struct {
	proc Processor
	src  Source

	in, out []int16
	pcm     []byte
	off     int

	buffers atomic.Uint64
}

// NewStream creates a stream calling proc with frameSize frames at a time.
func NewStream(proc Processor, src Source, frameSize int) *Stream {
	frameSize = max(frameSize, 1)

	if src == nil {
		src = Silence{}
	}

	s := &Stream{
		proc: proc,
		src:  src,
		in:   make([]int16, 2*frameSize),
		out:  make([]int16, 2*frameSize),
		pcm:  make([]byte, BytesPerFrame*frameSize),
	}
	s.off = len(s.pcm)

	return s
}

// Read fills p with PCM. It never fails.
func (s *Stream) Read(p []byte) (int, error) {
	n := 0

	for n < len(p) {
		if s.off == len(s.pcm) {
			s.render()
		}

		c := copy(p[n:], s.pcm[s.off:])
		s.off += c
		n += c
	}

	return n, nil
}

func (s *Stream) render() {
	s.src.Fill(s.in)
	s.proc.Process(s.out, s.in)

	for i, v := range s.out {
		binary.LittleEndian.PutUint16(s.pcm[2*i:], uint16(v))
	}

	s.off = 0
	s.buffers.Add(1)
}

// Buffers returns how many callback buffers have been rendered.
func (s *Stream) Buffers() uint64 {
	return s.buffers.Load()
}
