// ABOUTME: Functional options shared by the session stages
// ABOUTME: Logger, counters and report cadence
package bridge

import (
	"log/slog"
	"time"
)

// DefaultReportInterval is how often overruns and underruns are logged
const DefaultReportInterval = 500 * time.Millisecond

// Option configures negotiation and the stages that follow it
type Option func(*options)

type options struct {
	logger         *slog.Logger
	stats          *Stats
	reportInterval time.Duration
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStats records callback activity into stats instead of a private set
func WithStats(stats *Stats) Option {
	return func(o *options) {
		if stats != nil {
			o.stats = stats
		}
	}
}

// WithReportInterval sets the diagnostics cadence
func WithReportInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.reportInterval = d
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:         slog.Default(),
		reportInterval: DefaultReportInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stats == nil {
		o.stats = NewStats()
	}
	return o
}
