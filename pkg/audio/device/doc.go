// ABOUTME: Audio endpoint package for capture and playback devices
// ABOUTME: Provides Host, Input, Output and Stream interfaces and their backends
// Package device abstracts the audio endpoints the bridge connects.
//
// Backends:
//   - malgo (default): miniaudio capture and playback devices
//   - portaudio: PortAudio devices (build with -tags portaudio)
//   - oto: the system default output only
//   - file: WAV files, each stream paced by its own ticker
//
// Example:
//
//	host, err := device.OpenHost(device.BackendMalgo, device.FileOptions{}, nil)
//	in, err := device.FindInput(host, "M8", device.MatchContains)
//	out, err := device.FindOutput(host, "", device.MatchContains)
//
// Data callbacks run on the backend's audio thread. Stream.Stop does not
// return while a callback is running.
package device
