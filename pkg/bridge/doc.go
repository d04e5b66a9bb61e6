// ABOUTME: Audio bridge package
// ABOUTME: Routes captured audio to a playback device through a latency buffer
// Package bridge forwards audio captured on one device to another device
// with a fixed delay.
//
// A bridge moves through typed stages, so steps cannot run out of order:
//
//	negotiated, err := bridge.Negotiate(input, output)
//	primed, err := negotiated.Prime(150 * time.Millisecond)
//	running, err := primed.Start()
//	err = running.Wait(ctx, 3*time.Second)
//	err = running.Stop()
//
// Session wraps the same sequence and tracks the current State.
package bridge
