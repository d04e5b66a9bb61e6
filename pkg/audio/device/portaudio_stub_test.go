//go:build !portaudio

// ABOUTME: Tests for the PortAudio stub
// ABOUTME: Verifies the disabled backend fails with a clear error
package device

import (
	"errors"
	"testing"
)

func TestPortAudioDisabled(t *testing.T) {
	h, err := NewPortAudioHost(nil)
	if !errors.Is(err, ErrPortAudioDisabled) {
		t.Fatalf("expected ErrPortAudioDisabled, got %v", err)
	}
	if h != nil {
		t.Error("expected nil host from stub")
	}

	if _, err := OpenHost(BackendPortAudio, FileOptions{}, nil); !errors.Is(err, ErrPortAudioDisabled) {
		t.Errorf("expected OpenHost to surface ErrPortAudioDisabled, got %v", err)
	}
}
