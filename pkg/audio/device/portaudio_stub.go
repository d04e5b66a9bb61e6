//go:build !portaudio

// ABOUTME: PortAudio backend placeholder for default builds
// ABOUTME: Lets the backend registry name portaudio without linking it
package device

import (
	"errors"
	"log/slog"
)

// ErrPortAudioDisabled is returned by NewPortAudioHost in default builds
var ErrPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// NewPortAudioHost reports that PortAudio was not compiled in
func NewPortAudioHost(logger *slog.Logger) (Host, error) {
	return nil, ErrPortAudioDisabled
}
