// ABOUTME: Version information for the audio-bridge binaries
// ABOUTME: Printed by --version and in the startup log line
package version

import "fmt"

const (
	Version      = "0.1.0"
	Product      = "audio-bridge"
	Manufacturer = "Resonate"
)

// String renders "audio-bridge 0.1.0 (Resonate)"
func String() string {
	return fmt.Sprintf("%s %s (%s)", Product, Version, Manufacturer)
}
