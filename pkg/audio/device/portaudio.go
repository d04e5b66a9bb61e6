//go:build portaudio

// ABOUTME: PortAudio capture and playback endpoints
// ABOUTME: Cross-platform device streams using PortAudio
package device

import (
	"fmt"
	"log/slog"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// Probing every channel count of a 64-channel interface is slow
const portAudioMaxProbeChannels = 8

// PortAudioHost enumerates PortAudio devices
type PortAudioHost struct {
	logger *slog.Logger
	closed bool
}

// NewPortAudioHost initializes PortAudio
func NewPortAudioHost(logger *slog.Logger) (Host, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	logger.Debug("portaudio initialized", "version", portaudio.VersionText())
	return &PortAudioHost{logger: logger}, nil
}

func (h *PortAudioHost) Inputs() ([]Input, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate portaudio devices: %w", err)
	}
	var inputs []Input
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, &paEndpoint{host: h, info: d, input: true})
		}
	}
	return inputs, nil
}

func (h *PortAudioHost) Outputs() ([]Output, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate portaudio devices: %w", err)
	}
	var outputs []Output
	for _, d := range devices {
		if d.MaxOutputChannels > 0 {
			outputs = append(outputs, &paEndpoint{host: h, info: d})
		}
	}
	return outputs, nil
}

func (h *PortAudioHost) DefaultInput() (Input, error) {
	d, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}
	return &paEndpoint{host: h, info: d, input: true}, nil
}

func (h *PortAudioHost) DefaultOutput() (Output, error) {
	d, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}
	return &paEndpoint{host: h, info: d}, nil
}

func (h *PortAudioHost) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return portaudio.Terminate()
}

type paEndpoint struct {
	host  *PortAudioHost
	info  *portaudio.DeviceInfo
	input bool
}

func (e *paEndpoint) Name() string {
	if e.info.HostApi != nil {
		return fmt.Sprintf("%s (%s)", e.info.Name, e.info.HostApi.Name)
	}
	return e.info.Name
}

func (e *paEndpoint) maxChannels() int {
	if e.input {
		return e.info.MaxInputChannels
	}
	return e.info.MaxOutputChannels
}

func (e *paEndpoint) DefaultFormat() (audio.Format, error) {
	channels := min(e.maxChannels(), 2)
	return audio.Format{Channels: channels, SampleRate: int(e.info.DefaultSampleRate)}, nil
}

func (e *paEndpoint) params(format audio.Format) portaudio.StreamParameters {
	var p portaudio.StreamParameters
	if e.input {
		p = portaudio.LowLatencyParameters(e.info, nil)
		p.Input.Channels = format.Channels
	} else {
		p = portaudio.LowLatencyParameters(nil, e.info)
		p.Output.Channels = format.Channels
	}
	p.SampleRate = float64(format.SampleRate)
	p.FramesPerBuffer = portaudio.FramesPerBufferUnspecified
	return p
}

// SupportedConfigs probes the standard rates; PortAudio has no range query
func (e *paEndpoint) SupportedConfigs() ([]SupportedConfig, error) {
	var configs []SupportedConfig
	maxChannels := min(e.maxChannels(), portAudioMaxProbeChannels)
	for ch := 1; ch <= maxChannels; ch++ {
		for _, rate := range StandardSampleRates {
			p := e.params(audio.Format{Channels: ch, SampleRate: rate})
			var err error
			if e.input {
				err = portaudio.IsFormatSupported(p, func(in []float32) {})
			} else {
				err = portaudio.IsFormatSupported(p, func(out []float32) {})
			}
			if err == nil {
				configs = append(configs, SupportedConfig{Channels: ch, MinSampleRate: rate, MaxSampleRate: rate})
			}
		}
	}
	return configs, nil
}

func (e *paEndpoint) OpenCapture(format audio.Format, data CaptureFunc, onErr ErrorFunc) (Stream, error) {
	if !e.input {
		return nil, fmt.Errorf("%s is not a capture device", e.Name())
	}
	stream, err := portaudio.OpenStream(e.params(format), func(in []float32) {
		data(in)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open capture stream on %s: %w", e.Name(), err)
	}
	return &paStream{name: e.Name(), stream: stream}, nil
}

func (e *paEndpoint) OpenPlayback(format audio.Format, data PlaybackFunc, onErr ErrorFunc) (Stream, error) {
	if e.input {
		return nil, fmt.Errorf("%s is not a playback device", e.Name())
	}
	stream, err := portaudio.OpenStream(e.params(format), func(out []float32) {
		data(out)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open playback stream on %s: %w", e.Name(), err)
	}
	return &paStream{name: e.Name(), stream: stream}, nil
}

type paStream struct {
	name    string
	stream  *portaudio.Stream
	started bool
}

func (s *paStream) Start() error {
	if s.stream == nil {
		return ErrClosed
	}
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream on %s: %w", s.name, err)
	}
	s.started = true
	return nil
}

// Stop blocks until the callback has returned for the last time
func (s *paStream) Stop() error {
	if s.stream == nil || !s.started {
		return nil
	}
	s.started = false
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream on %s: %w", s.name, err)
	}
	return nil
}

func (s *paStream) Close() error {
	if s.stream == nil {
		return nil
	}
	stopErr := s.Stop()
	err := s.stream.Close()
	s.stream = nil
	if err != nil {
		return fmt.Errorf("failed to close stream on %s: %w", s.name, err)
	}
	return stopErr
}
