// ABOUTME: Backend registry for audio hosts
// ABOUTME: Opens a Host by backend name
package device

import (
	"fmt"
	"log/slog"
	"strings"
)

// Backend names accepted by OpenHost
const (
	BackendMalgo     = "malgo"
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
	BackendFile      = "file"
)

// Backends lists every backend name
func Backends() []string {
	return []string{BackendMalgo, BackendPortAudio, BackendOto, BackendFile}
}

// IsBackend reports whether name is a known backend
func IsBackend(name string) bool {
	for _, b := range Backends() {
		if b == name {
			return true
		}
	}
	return false
}

// OpenHost opens the named backend. File options are only used by the
// file backend.
func OpenHost(backend string, files FileOptions, logger *slog.Logger) (Host, error) {
	switch strings.ToLower(backend) {
	case BackendMalgo:
		h, err := NewMalgoHost(logger)
		if err != nil {
			return nil, err
		}
		return h, nil
	case BackendPortAudio:
		return NewPortAudioHost(logger)
	case BackendOto:
		return NewOtoHost(logger), nil
	case BackendFile:
		return NewFileHost(files, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (supported: %s)", backend, strings.Join(Backends(), ", "))
	}
}
