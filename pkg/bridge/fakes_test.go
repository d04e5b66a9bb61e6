// ABOUTME: In-memory endpoints for bridge tests
// ABOUTME: Capture the callbacks so tests can drive them directly
package bridge

import (
	"sync"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
)

// eventLog records stream lifecycle calls in order
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeStream struct {
	name     string
	log      *eventLog
	startErr error
	onStart  func()

	mu     sync.Mutex
	starts int
	stops  int
	closes int
}

func (s *fakeStream) Start() error {
	s.log.add(s.name + " start")
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	s.starts++
	s.mu.Unlock()
	if s.onStart != nil {
		s.onStart()
	}
	return nil
}

func (s *fakeStream) Stop() error {
	s.log.add(s.name + " stop")
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Close() error {
	s.log.add(s.name + " close")
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) counts() (starts, stops, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops, s.closes
}

type fakeInput struct {
	name      string
	format    audio.Format
	formatErr error
	openErr   error
	stream    *fakeStream

	opened int
	data   device.CaptureFunc
	onErr  device.ErrorFunc
}

func newFakeInput(format audio.Format, log *eventLog) *fakeInput {
	return &fakeInput{
		name:   "Fake Mic",
		format: format,
		stream: &fakeStream{name: "input", log: log},
	}
}

func (f *fakeInput) Name() string { return f.name }

func (f *fakeInput) DefaultFormat() (audio.Format, error) {
	return f.format, f.formatErr
}

func (f *fakeInput) OpenCapture(format audio.Format, data device.CaptureFunc, onErr device.ErrorFunc) (device.Stream, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	f.data = data
	f.onErr = onErr
	return f.stream, nil
}

type fakeOutput struct {
	name       string
	configs    []device.SupportedConfig
	configsErr error
	openErr    error
	stream     *fakeStream

	opened int
	format audio.Format
	data   device.PlaybackFunc
	onErr  device.ErrorFunc
}

func newFakeOutput(log *eventLog, configs ...device.SupportedConfig) *fakeOutput {
	return &fakeOutput{
		name:    "Fake Speakers",
		configs: configs,
		stream:  &fakeStream{name: "output", log: log},
	}
}

func (f *fakeOutput) Name() string { return f.name }

func (f *fakeOutput) DefaultFormat() (audio.Format, error) {
	if len(f.configs) == 0 {
		return audio.Format{}, nil
	}
	c := f.configs[0]
	return audio.Format{Channels: c.Channels, SampleRate: c.MaxSampleRate}, nil
}

func (f *fakeOutput) SupportedConfigs() ([]device.SupportedConfig, error) {
	return f.configs, f.configsErr
}

func (f *fakeOutput) OpenPlayback(format audio.Format, data device.PlaybackFunc, onErr device.ErrorFunc) (device.Stream, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	f.format = format
	f.data = data
	f.onErr = onErr
	return f.stream, nil
}
