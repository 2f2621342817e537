package engine

import (
	"sync/atomic"
	"time"
)

// Load is the most recent callback timing.
type Load struct {
	// Period is the time between the last two callback starts.
	Period time.Duration
	// Duration is how long the last callback ran.
	Duration time.Duration
}

// Percent returns 100*Duration/Period, or 0 before two callbacks have run.
func (l Load) Percent() int {
	if l.Period <= 0 {
		return 0
	}

	return int(100 * l.Duration / l.Period)
}

// LoadSample holds raw callback timestamps in nanoseconds.
type LoadSample struct {
	PrevStart, Start, End int64
}

// loadCells publishes a LoadSample from the audio path. A sequence counter
// brackets each write so readers can detect and retry a torn read; the
// writer never waits.
type loadCells struct {
	seq       atomic.Uint32
	prevStart atomic.Int64
	start     atomic.Int64
	end       atomic.Int64
}

func (c *loadCells) begin(now int64) {
	c.seq.Add(1)
	c.prevStart.Store(c.start.Load())
	c.start.Store(now)
}

func (c *loadCells) finish(now int64) {
	c.end.Store(now)
	c.seq.Add(1)
}

const loadReadAttempts = 4

func (c *loadCells) read() LoadSample {
	var s LoadSample

	for i := 0; i < loadReadAttempts; i++ {
		seq := c.seq.Load()
		s = LoadSample{PrevStart: c.prevStart.Load(), Start: c.start.Load(), End: c.end.Load()}

		if seq&1 == 0 && c.seq.Load() == seq {
			break
		}
	}

	return s
}

func (s LoadSample) load() Load {
	if s.PrevStart == 0 || s.End < s.Start {
		return Load{}
	}

	return Load{Period: time.Duration(s.Start - s.PrevStart), Duration: time.Duration(s.End - s.Start)}
}
