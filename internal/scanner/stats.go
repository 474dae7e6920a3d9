package scanner

import (
	"sync/atomic"
	"time"
)

// AppStats holds atomic counters summed across runs. Candidates and
// Masked count walked files; Inspected, Reported, Errors and CacheHits count
// emitted ones.
type AppStats struct {
	start      time.Time
	Runs       atomic.Int64
	Candidates atomic.Int64
	Masked     atomic.Int64
	Inspected  atomic.Int64
	Reported   atomic.Int64
	Errors     atomic.Int64
	CacheHits  atomic.Int64
}

// Start records the reference time for Elapsed.
func (s *AppStats) Start() {
	s.start = time.Now()
}

// Elapsed returns the time since Start.
func (s *AppStats) Elapsed() time.Duration {
	return time.Since(s.start)
}
