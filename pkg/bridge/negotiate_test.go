// ABOUTME: Tests for format negotiation and the mismatch report
// ABOUTME: Covers channel and rate matching against output configurations
package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
)

var stereo48k = audio.Format{Channels: 2, SampleRate: 48000}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name     string
		input    audio.Format
		configs  []device.SupportedConfig
		expectOK bool
	}{
		{
			name:     "rate inside range",
			input:    stereo48k,
			configs:  []device.SupportedConfig{{Channels: 2, MinSampleRate: 44100, MaxSampleRate: 48000}},
			expectOK: true,
		},
		{
			name:  "second config matches",
			input: stereo48k,
			configs: []device.SupportedConfig{
				{Channels: 1, MinSampleRate: 8000, MaxSampleRate: 192000},
				{Channels: 2, MinSampleRate: 48000, MaxSampleRate: 48000},
			},
			expectOK: true,
		},
		{
			name:     "mono only",
			input:    stereo48k,
			configs:  []device.SupportedConfig{{Channels: 1, MinSampleRate: 44100, MaxSampleRate: 48000}},
			expectOK: false,
		},
		{
			name:     "rate above range",
			input:    audio.Format{Channels: 2, SampleRate: 96000},
			configs:  []device.SupportedConfig{{Channels: 2, MinSampleRate: 44100, MaxSampleRate: 48000}},
			expectOK: false,
		},
		{
			name:     "rate below range",
			input:    audio.Format{Channels: 2, SampleRate: 22050},
			configs:  []device.SupportedConfig{{Channels: 2, MinSampleRate: 44100, MaxSampleRate: 48000}},
			expectOK: false,
		},
		{
			name:     "no configs",
			input:    stereo48k,
			configs:  nil,
			expectOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newFakeInput(tt.input, nil)
			out := newFakeOutput(nil, tt.configs...)

			n, err := Negotiate(in, out, WithLogger(discardLogger()))
			if tt.expectOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if n.Format() != tt.input {
					t.Errorf("expected format %v, got %v", tt.input, n.Format())
				}
				if !n.OutputConfig().Supports(tt.input) {
					t.Errorf("chosen config %v does not support %v", n.OutputConfig(), tt.input)
				}
				return
			}

			if !errors.Is(err, ErrFormatMismatch) {
				t.Fatalf("expected ErrFormatMismatch, got %v", err)
			}
			if n != nil {
				t.Error("expected no negotiated stage on mismatch")
			}
		})
	}
}

func TestFormatMismatchReport(t *testing.T) {
	in := newFakeInput(stereo48k, nil)
	out := newFakeOutput(nil,
		device.SupportedConfig{Channels: 1, MinSampleRate: 44100, MaxSampleRate: 48000},
		device.SupportedConfig{Channels: 1, MinSampleRate: 96000, MaxSampleRate: 96000},
	)

	_, err := Negotiate(in, out, WithLogger(discardLogger()))

	var mismatch *FormatMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *FormatMismatchError, got %T", err)
	}
	if mismatch.Required != stereo48k {
		t.Errorf("expected required %v, got %v", stereo48k, mismatch.Required)
	}
	if len(mismatch.Available) != 2 {
		t.Errorf("expected 2 available configs, got %d", len(mismatch.Available))
	}

	msg := err.Error()
	for _, want := range []string{
		"Unable to find output config",
		"Fake Speakers",
		"Found:",
		"1ch 44100-48000Hz",
		"1ch 96000Hz",
		"Expected:",
		"2ch 48000Hz",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got:\n%s", want, msg)
		}
	}
	if strings.Index(msg, "Found:") > strings.Index(msg, "Expected:") {
		t.Error("expected Found section before Expected section")
	}
}

func TestFormatMismatchReportNoConfigs(t *testing.T) {
	err := &FormatMismatchError{Output: "Null", Required: stereo48k}
	if !strings.Contains(err.Error(), "(none)") {
		t.Errorf("expected '(none)' in message, got:\n%s", err.Error())
	}
}

func TestNegotiateInputErrors(t *testing.T) {
	t.Run("format query fails", func(t *testing.T) {
		in := newFakeInput(stereo48k, nil)
		in.formatErr = errors.New("device busy")
		out := newFakeOutput(nil, device.SupportedConfig{Channels: 2, MinSampleRate: 48000, MaxSampleRate: 48000})

		_, err := Negotiate(in, out)
		if !errors.Is(err, in.formatErr) {
			t.Errorf("expected wrapped device error, got %v", err)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		in := newFakeInput(audio.Format{Channels: 0, SampleRate: 48000}, nil)
		out := newFakeOutput(nil, device.SupportedConfig{Channels: 2, MinSampleRate: 48000, MaxSampleRate: 48000})

		_, err := Negotiate(in, out)
		if !errors.Is(err, audio.ErrInvalidFormat) {
			t.Errorf("expected ErrInvalidFormat, got %v", err)
		}
	})

	t.Run("config query fails", func(t *testing.T) {
		in := newFakeInput(stereo48k, nil)
		out := newFakeOutput(nil)
		out.configsErr = errors.New("no such device")

		_, err := Negotiate(in, out)
		if !errors.Is(err, out.configsErr) {
			t.Errorf("expected wrapped config error, got %v", err)
		}
		if errors.Is(err, ErrFormatMismatch) {
			t.Error("config query failure should not be a format mismatch")
		}
	})
}

func TestFindConfig(t *testing.T) {
	configs := []device.SupportedConfig{
		{Channels: 2, MinSampleRate: 8000, MaxSampleRate: 44100},
		{Channels: 2, MinSampleRate: 44100, MaxSampleRate: 96000},
	}

	c, ok := FindConfig(stereo48k, configs)
	if !ok {
		t.Fatal("expected a match")
	}
	if c != configs[1] {
		t.Errorf("expected %v, got %v", configs[1], c)
	}

	c, ok = FindConfig(audio.Format{Channels: 2, SampleRate: 44100}, configs)
	if !ok || c != configs[0] {
		t.Errorf("expected first matching config %v, got %v", configs[0], c)
	}
}
