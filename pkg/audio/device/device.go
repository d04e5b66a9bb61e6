// ABOUTME: Audio endpoint interface definitions
// ABOUTME: Common interface for capture and playback backends
package device

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
)

// CaptureFunc receives one block of interleaved captured samples. It runs
// on the device's audio thread and must not block, allocate or lock. The
// slice is only valid for the duration of the call.
type CaptureFunc func(in []float32)

// PlaybackFunc fills one block of interleaved samples to be played. It
// runs on the device's audio thread with the same constraints as
// CaptureFunc.
type PlaybackFunc func(out []float32)

// ErrorFunc is called by a backend when a running stream fails
type ErrorFunc func(err error)

// Stream is an opened device stream.
//
// Stop must not return while a data callback is still executing, and no
// callback may start after it returns.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Input is an endpoint that can capture audio
type Input interface {
	// Name returns the display name of the device
	Name() string

	// DefaultFormat returns the device's preferred capture format
	DefaultFormat() (audio.Format, error)

	// OpenCapture opens a capture stream at format
	OpenCapture(format audio.Format, data CaptureFunc, onErr ErrorFunc) (Stream, error)
}

// Output is an endpoint that can play audio
type Output interface {
	// Name returns the display name of the device
	Name() string

	// DefaultFormat returns the device's preferred playback format
	DefaultFormat() (audio.Format, error)

	// SupportedConfigs lists the configurations the device accepts
	SupportedConfigs() ([]SupportedConfig, error)

	// OpenPlayback opens a playback stream at format
	OpenPlayback(format audio.Format, data PlaybackFunc, onErr ErrorFunc) (Stream, error)
}

// Host enumerates the endpoints of one audio backend
type Host interface {
	Inputs() ([]Input, error)
	Outputs() ([]Output, error)
	DefaultInput() (Input, error)
	DefaultOutput() (Output, error)
	Close() error
}

// SupportedConfig is a channel count together with an inclusive range of
// sample rates. Devices that accept a single rate report MinSampleRate ==
// MaxSampleRate.
type SupportedConfig struct {
	Channels      int
	MinSampleRate int
	MaxSampleRate int
}

// Supports reports whether format fits this configuration
func (c SupportedConfig) Supports(format audio.Format) bool {
	return c.Channels == format.Channels &&
		c.MinSampleRate <= format.SampleRate &&
		format.SampleRate <= c.MaxSampleRate
}

func (c SupportedConfig) String() string {
	if c.MinSampleRate == c.MaxSampleRate {
		return fmt.Sprintf("%dch %dHz", c.Channels, c.MinSampleRate)
	}
	return fmt.Sprintf("%dch %d-%dHz", c.Channels, c.MinSampleRate, c.MaxSampleRate)
}

// Standard sample rates probed by backends that cannot report ranges
var StandardSampleRates = []int{8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000, 176400, 192000}

// ErrClosed is returned when using a stream or host after Close
var ErrClosed = errors.New("device closed")
