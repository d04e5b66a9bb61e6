// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and float32 <-> integer sample conversions
// Package audio provides the fundamental types shared by the bridge.
//
// Samples travel through the bridge as interleaved float32 values. A
// Format describes how they are interleaved (Channels) and how fast the
// device clock consumes them (SampleRate):
//
//	format := audio.Format{Channels: 2, SampleRate: 48000}
//
//	// Interleaved samples in a 150ms latency window
//	n := format.SamplesFor(150 * time.Millisecond) // 14400
//
// SampleToInt and SampleFromInt convert between float32 and signed PCM
// for endpoints that store integer audio, such as WAV files.
package audio
