// ABOUTME: Error taxonomy for bridge sessions
// ABOUTME: Sentinel errors and the format mismatch report
package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
)

var (
	// ErrFormatMismatch means the output offers no configuration matching
	// the input format. Returned errors are *FormatMismatchError.
	ErrFormatMismatch = errors.New("format mismatch")

	// ErrStreamStart means a device rejected stream construction or start
	ErrStreamStart = errors.New("stream start failure")

	// ErrStreamFailure means a running stream reported an error
	ErrStreamFailure = errors.New("stream failure")

	// ErrAlreadyStarted is returned when a primed session or a Session is
	// started a second time
	ErrAlreadyStarted = errors.New("session already started")
)

// FormatMismatchError lists what the output offers against what the
// input requires.
type FormatMismatchError struct {
	Output    string
	Required  audio.Format
	Available []device.SupportedConfig
}

func (e *FormatMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unable to find output config for %q\n\n", e.Output)
	b.WriteString("Found:\n")
	if len(e.Available) == 0 {
		b.WriteString("    (none)\n")
	}
	for _, c := range e.Available {
		fmt.Fprintf(&b, "    %s\n", c)
	}
	b.WriteString("\nExpected:\n")
	fmt.Fprintf(&b, "    %s\n", e.Required)
	return b.String()
}

// Is makes errors.Is(err, ErrFormatMismatch) match
func (e *FormatMismatchError) Is(target error) bool {
	return target == ErrFormatMismatch
}
