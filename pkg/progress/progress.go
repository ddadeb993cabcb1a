// Package progress holds the state shared by all search workers: the
// candidate counter, the stop flag and the periodic reporter.
package progress

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/screa/bc1q-miner/internal/crypto"
	"github.com/screa/bc1q-miner/internal/logger"
)

// Counter is the total number of candidates evaluated across workers.
// Workers flush into it in batches, so it lags the true total by at most
// one batch per worker.
type Counter struct {
	n atomic.Uint64
}

// Add adds delta and returns the new total
func (c *Counter) Add(delta uint64) uint64 {
	return c.n.Add(delta)
}

// Load returns the current total
func (c *Counter) Load() uint64 {
	return c.n.Load()
}

// StopFlag is the cooperative cancellation signal for all workers.
type StopFlag struct {
	v atomic.Bool
}

// Raise sets the flag. It reports true only for the call that performed the
// false->true transition.
func (f *StopFlag) Raise() bool {
	return f.v.CompareAndSwap(false, true)
}

// Raised reports whether the flag is set
func (f *StopFlag) Raised() bool {
	return f.v.Load()
}

// Snapshot is one progress estimate.
type Snapshot struct {
	Count     uint64
	Elapsed   time.Duration
	Rate      float64 // candidates per second
	Percent   float64 // of the estimated search space
	Remaining time.Duration
	Estimable bool // false while Rate cannot be computed
}

// Reporter turns counter readings into progress lines.
type Reporter struct {
	logger *logger.Logger
	start  time.Time
	space  float64
	now    func() time.Time
}

// NewReporter starts the clock and fixes the estimated search space for prefix
func NewReporter(prefix string, log *logger.Logger) *Reporter {
	return &Reporter{
		logger: log,
		start:  time.Now(),
		space:  crypto.EstimateSearchSpace(prefix),
		now:    time.Now,
	}
}

// Estimate computes throughput and completion figures for count
func (r *Reporter) Estimate(count uint64) Snapshot {
	elapsed := r.now().Sub(r.start)
	s := Snapshot{
		Count:   count,
		Elapsed: elapsed,
		Percent: float64(count) / r.space * 100,
	}

	secs := elapsed.Seconds()
	if secs <= 0 || count == 0 {
		return s
	}

	s.Rate = float64(count) / secs
	s.Estimable = true

	left := (r.space - float64(count)) / s.Rate
	if left > 0 {
		s.Remaining = time.Duration(left * float64(time.Second))
	}
	return s
}

// Report logs a single progress line for count
func (r *Reporter) Report(count uint64) {
	r.logger.Println(Format(r.Estimate(count)))
}

// Format renders a snapshot as one tab-separated line
func Format(s Snapshot) string {
	speed, left := "n/a", "n/a"
	if s.Estimable {
		speed = fmt.Sprintf("%.2f/s", s.Rate)
		left = fmt.Sprintf("%.2fmin", s.Remaining.Minutes())
	}
	return fmt.Sprintf("count: %d\telapsed: %.2fmin\tspeed: %s\tprogress(est): %.2f%%\tleft(est): %s",
		s.Count, s.Elapsed.Minutes(), speed, s.Percent, left)
}
