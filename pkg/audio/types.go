// ABOUTME: Audio type definitions
// ABOUTME: Defines the negotiated stream format and sample conversions
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidFormat is returned by Format.Validate
var ErrInvalidFormat = errors.New("invalid stream format")

// Format describes a stream format negotiated between two endpoints.
// Samples are float32 and interleaved across Channels.
type Format struct {
	Channels   int
	SampleRate int // frames per second
}

// Validate checks that both fields are positive
func (f Format) Validate() error {
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidFormat, f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	return nil
}

// String renders the format as "2ch 48000Hz"
func (f Format) String() string {
	return fmt.Sprintf("%dch %dHz", f.Channels, f.SampleRate)
}

// SamplesFor returns the number of interleaved samples covering d,
// rounding the frame count to the nearest whole frame.
func (f Format) SamplesFor(d time.Duration) int {
	frames := math.Round(d.Seconds() * float64(f.SampleRate))
	return int(frames) * f.Channels
}

// DurationOf returns the playback time of n interleaved samples
func (f Format) DurationOf(n int) time.Duration {
	if f.Channels <= 0 || f.SampleRate <= 0 {
		return 0
	}
	frames := float64(n) / float64(f.Channels)
	return time.Duration(frames / float64(f.SampleRate) * float64(time.Second))
}

// SampleToInt converts a float32 sample in [-1, 1] to a signed integer of
// the given bit depth, clipping out-of-range input.
func SampleToInt(sample float32, bitDepth int) int {
	max := float64(int64(1)<<(bitDepth-1) - 1)
	v := math.Round(float64(sample) * max)
	if v > max {
		v = max
	} else if v < -max-1 {
		v = -max - 1
	}
	return int(v)
}

// SampleFromInt converts a signed integer sample of the given bit depth to
// float32 in [-1, 1).
func SampleFromInt(sample int, bitDepth int) float32 {
	scale := float32(int64(1) << (bitDepth - 1))
	return float32(sample) / scale
}
