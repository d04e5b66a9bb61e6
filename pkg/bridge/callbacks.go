// ABOUTME: Capture and playback callbacks bound to the latency buffer halves
// ABOUTME: Run on device audio threads; no blocking, allocation or locking
package bridge

import (
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/ringbuf"
)

// captureFunc pushes every captured sample. Samples that do not fit are
// discarded and counted as an overrun.
func captureFunc(producer *ringbuf.Producer, stats *Stats) device.CaptureFunc {
	return func(in []float32) {
		dropped := 0
		for _, s := range in {
			if !producer.Push(s) {
				dropped++
			}
		}
		stats.recordCapture(len(in)-dropped, dropped)
	}
}

// playbackFunc fills every slot of the block, writing silence where the
// buffer ran dry, and counts an underrun once the block is complete.
func playbackFunc(consumer *ringbuf.Consumer, stats *Stats) device.PlaybackFunc {
	return func(out []float32) {
		silenced := 0
		for i := range out {
			v, ok := consumer.Pop()
			if !ok {
				v = 0
				silenced++
			}
			out[i] = v
		}
		stats.recordPlayback(len(out)-silenced, silenced)
	}
}
