// ABOUTME: Typed session stages: negotiated, primed and running
// ABOUTME: Each stage can only be reached from the one before it
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/ringbuf"
)

// Negotiated holds an agreed stream format. Obtain one from Negotiate.
type Negotiated struct {
	input  device.Input
	output device.Output
	format audio.Format
	config device.SupportedConfig
	opts   options
}

// Format returns the stream format both endpoints will run at
func (n *Negotiated) Format() audio.Format {
	return n.format
}

// OutputConfig returns the output configuration that accepted the format
func (n *Negotiated) OutputConfig() device.SupportedConfig {
	return n.config
}

// Prime sizes the latency buffer for latency and fills one latency window
// with silence, so playback starts latency behind capture.
func (n *Negotiated) Prime(latency time.Duration) (*Primed, error) {
	buf, window, err := ringbuf.NewForLatency(latency, n.format)
	if err != nil {
		return nil, fmt.Errorf("failed to size latency buffer: %w", err)
	}
	if err := buf.Prime(window); err != nil {
		return nil, fmt.Errorf("failed to prime latency buffer: %w", err)
	}

	n.opts.logger.Debug("latency buffer primed",
		"latency", latency,
		"windowSamples", window,
		"capacity", buf.Cap(),
	)

	return &Primed{
		Negotiated: n,
		latency:    latency,
		window:     window,
		buf:        buf,
	}, nil
}

// Primed holds a latency buffer that is ready to stream
type Primed struct {
	*Negotiated
	latency time.Duration
	window  int
	buf     *ringbuf.Buffer
}

// Latency returns the configured latency
func (p *Primed) Latency() time.Duration {
	return p.latency
}

// WindowSamples returns the number of samples in one latency window
func (p *Primed) WindowSamples() int {
	return p.window
}

// Buffer returns the latency buffer for observation
func (p *Primed) Buffer() *ringbuf.Buffer {
	return p.buf
}

// Start opens and starts the capture stream, then the playback stream.
// If any step fails every stream opened so far is closed and the error
// wraps ErrStreamStart. A Primed can be started once.
func (p *Primed) Start() (*Running, error) {
	producer, consumer, err := p.buf.Split()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAlreadyStarted, err)
	}

	logger := p.opts.logger
	r := &Running{
		Primed: p,
		stats:  p.opts.stats,
		errs:   make(chan error, 1),
		logger: logger,
	}

	in, err := p.input.OpenCapture(p.format, captureFunc(producer, r.stats), r.streamError("input"))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open input %q: %w", ErrStreamStart, p.input.Name(), err)
	}

	out, err := p.output.OpenPlayback(p.format, playbackFunc(consumer, r.stats), r.streamError("output"))
	if err != nil {
		closeStreams(logger, in)
		return nil, fmt.Errorf("%w: failed to open output %q: %w", ErrStreamStart, p.output.Name(), err)
	}

	if err := in.Start(); err != nil {
		closeStreams(logger, in, out)
		return nil, fmt.Errorf("%w: failed to start input %q: %w", ErrStreamStart, p.input.Name(), err)
	}

	if err := out.Start(); err != nil {
		if stopErr := in.Stop(); stopErr != nil {
			logger.Warn("failed to stop input stream", "err", stopErr)
		}
		closeStreams(logger, in, out)
		return nil, fmt.Errorf("%w: failed to start output %q: %w", ErrStreamStart, p.output.Name(), err)
	}

	r.in = in
	r.out = out
	r.reporter = newReporter(r.stats, p.opts.reportInterval, logger)
	r.reporter.start()

	logger.Info("streaming",
		"input", p.input.Name(),
		"output", p.output.Name(),
		"format", p.format.String(),
		"latency", p.latency,
	)

	return r, nil
}

func closeStreams(logger *slog.Logger, streams ...device.Stream) {
	for _, s := range streams {
		if err := s.Close(); err != nil {
			logger.Warn("failed to close stream", "err", err)
		}
	}
}

// Running is a bridge with both streams started
type Running struct {
	*Primed
	in       device.Stream
	out      device.Stream
	stats    *Stats
	reporter *reporter
	logger   *slog.Logger

	errs chan error

	stopOnce sync.Once
	stopErr  error
}

// Stats returns the live counters
func (r *Running) Stats() *Stats {
	return r.stats
}

// streamError builds the error callback for one stream. It logs and keeps
// the first error for Wait; later errors are only logged.
func (r *Running) streamError(stream string) device.ErrorFunc {
	return func(err error) {
		r.logger.Error("an error occurred on stream", "stream", stream, "err", err)
		select {
		case r.errs <- fmt.Errorf("%w: %s: %w", ErrStreamFailure, stream, err):
		default:
		}
	}
}

// Wait blocks until d elapses, ctx is done or a stream reports an error.
// A non-positive d waits for ctx or a stream error only. Elapsed duration
// and cancellation are normal endings and return nil.
func (r *Running) Wait(ctx context.Context, d time.Duration) error {
	var timeout <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		r.logger.Debug("session interrupted", "reason", context.Cause(ctx))
		return nil
	case <-timeout:
		return nil
	case err := <-r.errs:
		return err
	}
}

// Stop halts capture, then playback, releases both streams and flushes
// the diagnostics. Further calls return the first result.
func (r *Running) Stop() error {
	r.stopOnce.Do(func() {
		var errs []error
		if err := r.in.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop input: %w", err))
		}
		if err := r.out.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop output: %w", err))
		}
		if err := r.in.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close input: %w", err))
		}
		if err := r.out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close output: %w", err))
		}
		r.reporter.stop()

		snap := r.stats.Snapshot()
		r.logger.Info("streams stopped",
			"captured", snap.Captured,
			"played", snap.Played,
			"overruns", snap.Overruns,
			"underruns", snap.Underruns,
		)
		r.stopErr = errors.Join(errs...)
	})
	return r.stopErr
}
