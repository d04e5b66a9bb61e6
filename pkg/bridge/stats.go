// ABOUTME: Lock-free counters updated by the audio callbacks
// ABOUTME: Tracks captured/played samples and overrun/underrun events
package bridge

import "sync/atomic"

// Stats tracks bridge activity. Callbacks update it with atomic adds only.
type Stats struct {
	captureCallbacks  atomic.Uint64
	playbackCallbacks atomic.Uint64
	captured          atomic.Uint64
	played            atomic.Uint64
	overruns          atomic.Uint64
	dropped           atomic.Uint64
	underruns         atomic.Uint64
	silenced          atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	CaptureCallbacks  uint64
	PlaybackCallbacks uint64
	Captured          uint64 // samples pushed into the buffer
	Played            uint64 // samples popped from the buffer
	Overruns          uint64 // capture blocks with at least one dropped sample
	Dropped           uint64 // samples discarded because the buffer was full
	Underruns         uint64 // playback blocks with at least one silenced slot
	Silenced          uint64 // slots filled with silence because the buffer was empty
}

// NewStats creates zeroed counters
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) recordCapture(pushed, dropped int) {
	s.captureCallbacks.Add(1)
	s.captured.Add(uint64(pushed))
	if dropped > 0 {
		s.overruns.Add(1)
		s.dropped.Add(uint64(dropped))
	}
}

func (s *Stats) recordPlayback(popped, silenced int) {
	s.playbackCallbacks.Add(1)
	s.played.Add(uint64(popped))
	if silenced > 0 {
		s.underruns.Add(1)
		s.silenced.Add(uint64(silenced))
	}
}

// Snapshot returns the current counter values
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		CaptureCallbacks:  s.captureCallbacks.Load(),
		PlaybackCallbacks: s.playbackCallbacks.Load(),
		Captured:          s.captured.Load(),
		Played:            s.played.Load(),
		Overruns:          s.overruns.Load(),
		Dropped:           s.dropped.Load(),
		Underruns:         s.underruns.Load(),
		Silenced:          s.silenced.Load(),
	}
}
