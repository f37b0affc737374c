package harvest

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// Stats holds the monotonic runtime counters of one harvesting run. They are
// written only by the acquisition loop, so the report line is always a
// consistent snapshot of a single iteration boundary.
type Stats struct {
	// Opens counts successful source session opens.
	Opens *metrics.Counter
	// Reads counts successful chunk reads.
	Reads *metrics.Counter
	// Retries counts immediate read retries after a transient failure.
	Retries *metrics.Counter
	// Bytes counts entropy bytes handed to the sink's source side, i.e.
	// reads times chunk size.
	Bytes *metrics.Counter

	chunk int
	set   *metrics.Set
}

// NewStats returns a zeroed counter set for a run with the given chunk size.
func NewStats(chunk int) *Stats {
	set := metrics.NewSet()
	return &Stats{
		Opens:   set.NewCounter("harvest_opens_total"),
		Reads:   set.NewCounter("harvest_reads_total"),
		Retries: set.NewCounter("harvest_retries_total"),
		Bytes:   set.NewCounter("harvest_bytes_total"),
		chunk:   chunk,
		set:     set,
	}
}

// ChunkSize returns the configured chunk size the counters describe.
func (s *Stats) ChunkSize() int {
	return s.chunk
}

// Line formats the counters the way the report signal and the shutdown path
// emit them. A zeroed counter set formats fine.
func (s *Stats) Line() string {
	return fmt.Sprintf("opens=%d size=%d reads=%d total=%d retries=%d",
		s.Opens.Get(), s.chunk, s.Reads.Get(), s.Bytes.Get(), s.Retries.Get())
}
