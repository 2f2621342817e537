package fx

import (
	"fmt"

	"github.com/emeb/S3GTA/dsp/core"
)

// DefaultArenaBytes is the capacity of the shared algorithm memory.
const DefaultArenaBytes = core.DefaultArenaBytes

// Arena is a bump allocator over one preallocated block of sample memory.
// It is reset whenever the active algorithm changes, so at most one
// instance owns memory from it at a time. Not safe for concurrent use; only
// the Selector touches it, on the foreground.
type Arena struct {
	mem  []int16
	used int
}

// NewArena allocates an arena of the given capacity in bytes.
func NewArena(bytes int) *Arena {
	return &Arena{mem: make([]int16, max(bytes, 0)/2)}
}

// Capacity returns the arena size in bytes.
func (a *Arena) Capacity() int {
	return 2 * len(a.mem)
}

// Used returns the number of bytes handed out since the last Reset.
func (a *Arena) Used() int {
	return 2 * a.used
}

// Reset forgets all allocations. Memory is not cleared here; Int16s clears
// what it hands out.
func (a *Arena) Reset() {
	a.used = 0
}

// Int16s returns n zeroed samples. The slice's capacity is capped at n so
// an append cannot spill into a later allocation.
func (a *Arena) Int16s(n int) ([]int16, error) {
	if n < 0 || n > len(a.mem)-a.used {
		return nil, fmt.Errorf("%w: want %d bytes, %d free", ErrArenaExhausted, 2*n, a.Capacity()-a.Used())
	}

	s := a.mem[a.used : a.used+n : a.used+n]
	clear(s)
	a.used += n

	return s, nil
}

// Bytes allocates at least n bytes worth of samples.
func (a *Arena) Bytes(n int) ([]int16, error) {
	return a.Int16s((n + 1) / 2)
}
