package plumberd

import "time"

// Stopwatch is a tiny elapsed-time helper, grounded on the original
// stop_watch.hpp: start it, read Elapsed as many times as needed, Reset
// to start over. Used internally to label the command round-trip latency
// metric and available to hosts timing their own handlers.
type Stopwatch struct {
	start time.Time
}

// NewStopwatch creates a Stopwatch already running.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

// Elapsed returns the time since the stopwatch was started or last Reset.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Reset restarts the stopwatch at the current time.
func (s *Stopwatch) Reset() {
	s.start = time.Now()
}
