// ABOUTME: Latency buffer package
// ABOUTME: Lock-free SPSC queue bridging two unsynchronized audio clocks
// Package ringbuf provides the latency buffer that sits between a capture
// callback and a playback callback running on different device clocks.
//
// The buffer is created from a latency target, primed with a window of
// silence and then split. The producer half goes to the capture side and
// the consumer half to the playback side:
//
//	buf, window, err := ringbuf.NewForLatency(150*time.Millisecond, format)
//	err = buf.Prime(window)
//	producer, consumer, err := buf.Split()
//
// Push and Pop never block, never allocate and never lock, so they are
// safe to call from real-time audio threads.
package ringbuf
