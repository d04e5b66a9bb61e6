// ABOUTME: Session controller driving a bridge through its lifecycle
// ABOUTME: Idle -> FormatNegotiated -> BufferPrimed -> Streaming -> Stopped
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
)

// DefaultLatency is the delay between capture and playback
const DefaultLatency = 150 * time.Millisecond

// State is a session lifecycle stage
type State int

const (
	StateIdle State = iota
	StateFormatNegotiated
	StateBufferPrimed
	StateStreaming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFormatNegotiated:
		return "format-negotiated"
	case StateBufferPrimed:
		return "buffer-primed"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config controls a session
type Config struct {
	Latency        time.Duration // capture to playback delay
	Duration       time.Duration // streaming time, 0 runs until the context ends
	ReportInterval time.Duration // diagnostics cadence
}

// Session bridges one input to one output
type Session struct {
	id     uuid.UUID
	config Config
	input  device.Input
	output device.Output
	stats  *Stats
	logger *slog.Logger

	mu      sync.RWMutex
	started bool
	state   State
	format  audio.Format
}

// NewSession creates an idle session. Zero Config fields take defaults.
func NewSession(in device.Input, out device.Output, config Config, logger *slog.Logger) *Session {
	if config.Latency <= 0 {
		config.Latency = DefaultLatency
	}
	if config.ReportInterval <= 0 {
		config.ReportInterval = DefaultReportInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New()
	return &Session{
		id:     id,
		config: config,
		input:  in,
		output: out,
		stats:  NewStats(),
		logger: logger.With("session", id.String()),
		state:  StateIdle,
	}
}

// ID returns the session identifier used in log records
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current lifecycle stage
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Format returns the negotiated format, zero before negotiation
func (s *Session) Format() audio.Format {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

// Stats returns the session counters
func (s *Session) Stats() *Stats {
	return s.stats
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()
	s.logger.Debug("session state changed", "from", prev.String(), "to", state.String())
}

// Run negotiates, primes and streams until the configured duration
// passes, ctx ends or a stream fails, then stops both streams. The
// session ends in StateStopped whatever the outcome. Run may be called
// once.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()
	defer s.setState(StateStopped)

	negotiated, err := Negotiate(s.input, s.output,
		WithLogger(s.logger),
		WithStats(s.stats),
		WithReportInterval(s.config.ReportInterval),
	)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.format = negotiated.Format()
	s.mu.Unlock()
	s.setState(StateFormatNegotiated)

	primed, err := negotiated.Prime(s.config.Latency)
	if err != nil {
		return err
	}
	s.setState(StateBufferPrimed)

	running, err := primed.Start()
	if err != nil {
		return err
	}
	s.setState(StateStreaming)

	waitErr := running.Wait(ctx, s.config.Duration)
	stopErr := running.Stop()
	return errors.Join(waitErr, stopErr)
}
