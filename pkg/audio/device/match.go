// ABOUTME: Endpoint discovery by display name
// ABOUTME: Matches device names by substring or prefix and resolves defaults
package device

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDeviceNotFound is returned when no endpoint matches
var ErrDeviceNotFound = errors.New("device not found")

// MatchMode selects how a pattern is compared with device names
type MatchMode int

const (
	MatchContains MatchMode = iota
	MatchPrefix
)

func (m MatchMode) String() string {
	switch m {
	case MatchContains:
		return "contains"
	case MatchPrefix:
		return "prefix"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode parses "contains" or "prefix"
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contains", "":
		return MatchContains, nil
	case "prefix":
		return MatchPrefix, nil
	default:
		return 0, fmt.Errorf("unknown match mode %q (supported: contains, prefix)", s)
	}
}

// Match reports whether name matches pattern under mode
func (m MatchMode) Match(name, pattern string) bool {
	if m == MatchPrefix {
		return strings.HasPrefix(name, pattern)
	}
	return strings.Contains(name, pattern)
}

// FindInput returns the first input whose name matches pattern. An empty
// pattern selects the host's default input.
func FindInput(h Host, pattern string, mode MatchMode) (Input, error) {
	if pattern == "" {
		in, err := h.DefaultInput()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input: %v", ErrDeviceNotFound, err)
		}
		return in, nil
	}

	inputs, err := h.Inputs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate inputs: %w", err)
	}
	for _, in := range inputs {
		if mode.Match(in.Name(), pattern) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: no input device name %s %q", ErrDeviceNotFound, verb(mode), pattern)
}

// FindOutput returns the first output whose name matches pattern. An empty
// pattern selects the host's default output.
func FindOutput(h Host, pattern string, mode MatchMode) (Output, error) {
	if pattern == "" {
		out, err := h.DefaultOutput()
		if err != nil {
			return nil, fmt.Errorf("%w: no default output: %v", ErrDeviceNotFound, err)
		}
		return out, nil
	}

	outputs, err := h.Outputs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate outputs: %w", err)
	}
	for _, out := range outputs {
		if mode.Match(out.Name(), pattern) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: no output device name %s %q", ErrDeviceNotFound, verb(mode), pattern)
}

func verb(mode MatchMode) string {
	if mode == MatchPrefix {
		return "starts with"
	}
	return "contains"
}
