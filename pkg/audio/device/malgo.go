// ABOUTME: Malgo-based capture and playback endpoints
// ABOUTME: Uses miniaudio via malgo for callback-driven device streams
package device

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/gen2brain/malgo"
)

// miniaudio reports 0 for "any" in native data formats
const (
	malgoMinSampleRate = 8000
	malgoMaxSampleRate = 384000
)

// Fallback when a device does not report any native format
var malgoFallbackFormat = audio.Format{Channels: 2, SampleRate: 48000}

// MalgoHost enumerates miniaudio devices
type MalgoHost struct {
	ctx    *malgo.AllocatedContext
	logger *slog.Logger
}

// NewMalgoHost initializes a miniaudio context with realtime callback threads
func NewMalgoHost(logger *slog.Logger) (*MalgoHost, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config := malgo.ContextConfig{}
	config.ThreadPriority = malgo.ThreadPriorityRealtime

	ctx, err := malgo.InitContext(nil, config, func(message string) {
		logger.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	return &MalgoHost{ctx: ctx, logger: logger}, nil
}

// Inputs lists capture devices
func (h *MalgoHost) Inputs() ([]Input, error) {
	endpoints, err := h.endpoints(malgo.Capture)
	if err != nil {
		return nil, err
	}
	inputs := make([]Input, len(endpoints))
	for i, e := range endpoints {
		inputs[i] = e
	}
	return inputs, nil
}

// Outputs lists playback devices
func (h *MalgoHost) Outputs() ([]Output, error) {
	endpoints, err := h.endpoints(malgo.Playback)
	if err != nil {
		return nil, err
	}
	outputs := make([]Output, len(endpoints))
	for i, e := range endpoints {
		outputs[i] = e
	}
	return outputs, nil
}

// DefaultInput returns the system default capture device
func (h *MalgoHost) DefaultInput() (Input, error) {
	e, err := h.defaultEndpoint(malgo.Capture)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DefaultOutput returns the system default playback device
func (h *MalgoHost) DefaultOutput() (Output, error) {
	e, err := h.defaultEndpoint(malgo.Playback)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Close releases the miniaudio context
func (h *MalgoHost) Close() error {
	if h.ctx == nil {
		return nil
	}
	if err := h.ctx.Uninit(); err != nil {
		h.logger.Warn("malgo context uninit error", "err", err)
	}
	h.ctx.Free()
	h.ctx = nil
	return nil
}

func (h *MalgoHost) endpoints(kind malgo.DeviceType) ([]*malgoEndpoint, error) {
	if h.ctx == nil {
		return nil, ErrClosed
	}

	infos, err := h.ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s devices: %w", kindName(kind), err)
	}

	endpoints := make([]*malgoEndpoint, 0, len(infos))
	for _, info := range infos {
		// Enumeration leaves the native formats empty on most backends
		full, err := h.ctx.DeviceInfo(kind, info.ID, malgo.Shared)
		if err != nil {
			h.logger.Debug("device info unavailable", "device", info.Name(), "err", err)
			full = info
		}
		endpoints = append(endpoints, &malgoEndpoint{host: h, kind: kind, info: full})
	}
	return endpoints, nil
}

func (h *MalgoHost) defaultEndpoint(kind malgo.DeviceType) (*malgoEndpoint, error) {
	endpoints, err := h.endpoints(kind)
	if err != nil {
		return nil, err
	}
	for _, e := range endpoints {
		if e.info.IsDefault != 0 {
			return e, nil
		}
	}
	if len(endpoints) > 0 {
		return endpoints[0], nil
	}
	return nil, fmt.Errorf("%w: no %s devices", ErrDeviceNotFound, kindName(kind))
}

// malgoEndpoint is a single miniaudio device usable as Input or Output
type malgoEndpoint struct {
	host *MalgoHost
	kind malgo.DeviceType
	info malgo.DeviceInfo
}

func (e *malgoEndpoint) Name() string {
	return e.info.Name()
}

func (e *malgoEndpoint) nativeFormats() []malgo.DataFormat {
	n := int(e.info.FormatCount)
	if n > len(e.info.Formats) {
		n = len(e.info.Formats)
	}
	return e.info.Formats[:n]
}

// DefaultFormat returns the first fully specified native format
func (e *malgoEndpoint) DefaultFormat() (audio.Format, error) {
	for _, f := range e.nativeFormats() {
		if f.Channels > 0 && f.SampleRate > 0 {
			return audio.Format{Channels: int(f.Channels), SampleRate: int(f.SampleRate)}, nil
		}
	}
	return malgoFallbackFormat, nil
}

// SupportedConfigs converts native data formats to configurations. A zero
// sample rate expands to miniaudio's full range.
func (e *malgoEndpoint) SupportedConfigs() ([]SupportedConfig, error) {
	seen := make(map[SupportedConfig]bool)
	var configs []SupportedConfig

	add := func(c SupportedConfig) {
		if !seen[c] {
			seen[c] = true
			configs = append(configs, c)
		}
	}

	for _, f := range e.nativeFormats() {
		minRate, maxRate := int(f.SampleRate), int(f.SampleRate)
		if f.SampleRate == 0 {
			minRate, maxRate = malgoMinSampleRate, malgoMaxSampleRate
		}
		if f.Channels == 0 {
			add(SupportedConfig{Channels: 1, MinSampleRate: minRate, MaxSampleRate: maxRate})
			add(SupportedConfig{Channels: 2, MinSampleRate: minRate, MaxSampleRate: maxRate})
			continue
		}
		add(SupportedConfig{Channels: int(f.Channels), MinSampleRate: minRate, MaxSampleRate: maxRate})
	}

	if len(configs) == 0 {
		def, _ := e.DefaultFormat()
		add(SupportedConfig{Channels: def.Channels, MinSampleRate: def.SampleRate, MaxSampleRate: def.SampleRate})
	}
	return configs, nil
}

// OpenCapture opens a float32 capture stream on this device
func (e *malgoEndpoint) OpenCapture(format audio.Format, data CaptureFunc, onErr ErrorFunc) (Stream, error) {
	if e.kind != malgo.Capture {
		return nil, fmt.Errorf("%s is not a capture device", e.Name())
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = uint32(format.Channels)
	config.Capture.DeviceID = e.info.ID.Pointer()
	config.SampleRate = uint32(format.SampleRate)
	config.Alsa.NoMMap = 1

	return e.open(config, func(_, in []byte, _ uint32) {
		data(float32View(in))
	}, onErr)
}

// OpenPlayback opens a float32 playback stream on this device
func (e *malgoEndpoint) OpenPlayback(format audio.Format, data PlaybackFunc, onErr ErrorFunc) (Stream, error) {
	if e.kind != malgo.Playback {
		return nil, fmt.Errorf("%s is not a playback device", e.Name())
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = uint32(format.Channels)
	config.Playback.DeviceID = e.info.ID.Pointer()
	config.SampleRate = uint32(format.SampleRate)
	config.Alsa.NoMMap = 1

	return e.open(config, func(out, _ []byte, _ uint32) {
		data(float32View(out))
	}, onErr)
}

func (e *malgoEndpoint) open(config malgo.DeviceConfig, onData malgo.DataProc, onErr ErrorFunc) (Stream, error) {
	if e.host.ctx == nil {
		return nil, ErrClosed
	}

	s := &malgoStream{name: e.Name()}
	callbacks := malgo.DeviceCallbacks{
		Data: onData,
		Stop: func() {
			// miniaudio also calls this when the device disappears
			if !s.stopping.Load() && onErr != nil {
				onErr(fmt.Errorf("device %s stopped unexpectedly", s.name))
			}
		},
	}

	dev, err := malgo.InitDevice(e.host.ctx.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s device %s: %w", kindName(config.DeviceType), e.Name(), err)
	}
	s.device = dev

	e.host.logger.Debug("malgo stream opened",
		"device", e.Name(),
		"kind", kindName(config.DeviceType),
		"sampleRate", dev.SampleRate(),
	)
	return s, nil
}

type malgoStream struct {
	name     string
	device   *malgo.Device
	stopping atomic.Bool
}

func (s *malgoStream) Start() error {
	if s.device == nil {
		return ErrClosed
	}
	s.stopping.Store(false)
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start device %s: %w", s.name, err)
	}
	return nil
}

// Stop returns once miniaudio has stopped calling back
func (s *malgoStream) Stop() error {
	if s.device == nil {
		return nil
	}
	s.stopping.Store(true)
	if !s.device.IsStarted() {
		return nil
	}
	if err := s.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device %s: %w", s.name, err)
	}
	return nil
}

func (s *malgoStream) Close() error {
	if s.device == nil {
		return nil
	}
	err := s.Stop()
	s.device.Uninit()
	s.device = nil
	return err
}

// float32View reinterprets a miniaudio f32 buffer without copying
func float32View(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func kindName(kind malgo.DeviceType) string {
	switch kind {
	case malgo.Capture:
		return "capture"
	case malgo.Playback:
		return "playback"
	default:
		return fmt.Sprintf("DeviceType(%d)", kind)
	}
}
