// ABOUTME: Periodic diagnostics for buffer overruns and underruns
// ABOUTME: Logs from its own goroutine so the audio callbacks never do I/O
package bridge

import (
	"log/slog"
	"sync"
	"time"
)

const (
	msgOutputBehind = "output stream fell behind. need to increase latency"
	msgInputBehind  = "input stream fell behind. need to increase latency"
)

// reporter turns counter deltas into log lines
type reporter struct {
	stats    *Stats
	interval time.Duration
	logger   *slog.Logger

	last StatsSnapshot
	done chan struct{}
	wg   sync.WaitGroup
}

func newReporter(stats *Stats, interval time.Duration, logger *slog.Logger) *reporter {
	return &reporter{
		stats:    stats,
		interval: interval,
		logger:   logger,
		last:     stats.Snapshot(),
		done:     make(chan struct{}),
	}
}

func (r *reporter) start() {
	r.wg.Add(1)
	go r.run()
}

func (r *reporter) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			r.report()
			return
		case <-ticker.C:
			r.report()
		}
	}
}

// report logs what changed since the previous call
func (r *reporter) report() {
	now := r.stats.Snapshot()

	if n := now.Overruns - r.last.Overruns; n > 0 {
		r.logger.Warn(msgOutputBehind,
			"overruns", n,
			"droppedSamples", now.Dropped-r.last.Dropped,
		)
	}
	if n := now.Underruns - r.last.Underruns; n > 0 {
		r.logger.Warn(msgInputBehind,
			"underruns", n,
			"silencedSamples", now.Silenced-r.last.Silenced,
		)
	}

	r.last = now
}

// stop flushes a final report and waits for the goroutine
func (r *reporter) stop() {
	close(r.done)
	r.wg.Wait()
}
