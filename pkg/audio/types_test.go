// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation, latency arithmetic and sample conversion
package audio

import (
	"errors"
	"testing"
	"time"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"stereo 48k", Format{Channels: 2, SampleRate: 48000}, false},
		{"mono 44.1k", Format{Channels: 1, SampleRate: 44100}, false},
		{"zero channels", Format{Channels: 0, SampleRate: 48000}, true},
		{"negative rate", Format{Channels: 2, SampleRate: -1}, true},
		{"zero value", Format{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestSamplesFor(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		latency  time.Duration
		expected int
	}{
		{"150ms stereo 48k", Format{Channels: 2, SampleRate: 48000}, 150 * time.Millisecond, 14400},
		{"150ms mono 44.1k", Format{Channels: 1, SampleRate: 44100}, 150 * time.Millisecond, 6615},
		{"rounds frames", Format{Channels: 2, SampleRate: 44100}, 10*time.Millisecond + 11*time.Microsecond, 882},
		{"zero", Format{Channels: 2, SampleRate: 48000}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.format.SamplesFor(tt.latency)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestDurationOf(t *testing.T) {
	f := Format{Channels: 2, SampleRate: 48000}
	if d := f.DurationOf(14400); d != 150*time.Millisecond {
		t.Errorf("expected 150ms, got %v", d)
	}
	if d := (Format{}).DurationOf(100); d != 0 {
		t.Errorf("expected 0 for invalid format, got %v", d)
	}
}

func TestFormatString(t *testing.T) {
	f := Format{Channels: 2, SampleRate: 48000}
	if f.String() != "2ch 48000Hz" {
		t.Errorf("expected '2ch 48000Hz', got '%s'", f.String())
	}
}

func TestSampleToInt(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		bitDepth int
		expected int
	}{
		{"zero", 0, 16, 0},
		{"full scale", 1, 16, 32767},
		{"negative full scale", -1, 16, -32767},
		{"clip high", 1.5, 16, 32767},
		{"clip low", -1.5, 16, -32768},
		{"half 24-bit", 0.5, 24, 4194304},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt(tt.input, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFromInt(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		bitDepth int
		expected float32
	}{
		{"zero", 0, 16, 0},
		{"min 16-bit", -32768, 16, -1},
		{"half 16-bit", 16384, 16, 0.5},
		{"min 24-bit", -8388608, 24, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt(tt.input, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
