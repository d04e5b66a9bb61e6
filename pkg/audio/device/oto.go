// ABOUTME: Oto-based playback endpoint
// ABOUTME: Pulls float32 samples from the playback callback through an io.Reader
package device

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

const (
	otoOutputName = "oto default output"
	otoBufferSize = 20 * time.Millisecond
)

// OtoHost exposes the system default output through oto. Oto has no
// capture support and allows a single context per process, so the host
// has one output and no inputs.
type OtoHost struct {
	logger *slog.Logger

	mu     sync.Mutex
	ctx    *oto.Context
	format audio.Format
}

// NewOtoHost creates an output-only host. The oto context is created
// lazily by the first stream because its format is fixed at creation.
func NewOtoHost(logger *slog.Logger) *OtoHost {
	if logger == nil {
		logger = slog.Default()
	}
	return &OtoHost{logger: logger}
}

func (h *OtoHost) Inputs() ([]Input, error) {
	return nil, nil
}

func (h *OtoHost) Outputs() ([]Output, error) {
	return []Output{&otoOutput{host: h}}, nil
}

func (h *OtoHost) DefaultInput() (Input, error) {
	return nil, fmt.Errorf("%w: oto does not support capture", ErrDeviceNotFound)
}

func (h *OtoHost) DefaultOutput() (Output, error) {
	return &otoOutput{host: h}, nil
}

// Close suspends the shared context; oto cannot destroy it
func (h *OtoHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx != nil {
		if err := h.ctx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}

func (h *OtoHost) context(format audio.Format) (*oto.Context, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx != nil {
		if h.format != format {
			return nil, fmt.Errorf("oto context already running at %s, cannot reopen at %s", h.format, format)
		}
		if err := h.ctx.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume oto context: %w", err)
		}
		return h.ctx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	h.ctx = ctx
	h.format = format
	h.logger.Debug("oto context initialized", "format", format.String())
	return ctx, nil
}

type otoOutput struct {
	host *OtoHost
}

func (o *otoOutput) Name() string {
	return otoOutputName
}

func (o *otoOutput) DefaultFormat() (audio.Format, error) {
	return audio.Format{Channels: 2, SampleRate: 48000}, nil
}

// SupportedConfigs reports mono and stereo at any rate oto accepts
func (o *otoOutput) SupportedConfigs() ([]SupportedConfig, error) {
	return []SupportedConfig{
		{Channels: 1, MinSampleRate: malgoMinSampleRate, MaxSampleRate: 192000},
		{Channels: 2, MinSampleRate: malgoMinSampleRate, MaxSampleRate: 192000},
	}, nil
}

func (o *otoOutput) OpenPlayback(format audio.Format, data PlaybackFunc, onErr ErrorFunc) (Stream, error) {
	if format.Channels > 2 {
		return nil, fmt.Errorf("oto supports at most 2 channels, got %d", format.Channels)
	}

	ctx, err := o.host.context(format)
	if err != nil {
		return nil, err
	}

	r := &pullReader{data: data, onErr: onErr, ctx: ctx}
	player := ctx.NewPlayer(r)
	return &otoStream{player: player, reader: r}, nil
}

// pullReader turns oto's Read calls into playback callbacks
type pullReader struct {
	data  PlaybackFunc
	onErr ErrorFunc
	ctx   *oto.Context

	// held for the duration of a callback so Stop can wait it out
	mu      sync.Mutex
	stopped bool
	failed  bool
	scratch []float32
}

func (r *pullReader) Read(p []byte) (int, error) {
	n := len(p) &^ 3
	if n == 0 {
		clear(p)
		return len(p), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	samples := n / 4
	if cap(r.scratch) < samples {
		r.scratch = make([]float32, samples)
	}
	block := r.scratch[:samples]

	if r.stopped {
		clear(block)
	} else {
		r.data(block)
	}

	for i, s := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}

	if err := r.ctx.Err(); err != nil && !r.failed && r.onErr != nil {
		r.failed = true
		r.onErr(fmt.Errorf("oto context error: %w", err))
	}
	return n, nil
}

func (r *pullReader) setStopped(stopped bool) {
	r.mu.Lock()
	r.stopped = stopped
	r.mu.Unlock()
}

type otoStream struct {
	player *oto.Player
	reader *pullReader
}

func (s *otoStream) Start() error {
	if s.player == nil {
		return ErrClosed
	}
	s.reader.setStopped(false)
	s.player.Play()
	return nil
}

// Stop pauses the player and waits for any in-flight callback
func (s *otoStream) Stop() error {
	if s.player == nil {
		return nil
	}
	s.reader.setStopped(true)
	s.player.Pause()
	return nil
}

func (s *otoStream) Close() error {
	if s.player == nil {
		return nil
	}
	s.Stop()
	err := s.player.Close()
	s.player = nil
	if err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}
