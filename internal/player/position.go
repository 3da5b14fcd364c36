// Package player renders pre-synthesized buffers against a playback clock,
// either a host transport that can jump and stall, or a freestanding
// self-advancing transport.
package player

import "sync"

// PositionInfo is a snapshot of the host transport state for one render
// block. SampleRate is the device rate of the callback consuming the
// rendered audio.
type PositionInfo struct {
	Playing     bool
	TimeSeconds float64
	SampleRate  float64
	BPM         float64
	TimeSigNum  int
	TimeSigDen  int
}

// PositionStore publishes host transport snapshots from the audio callback
// to slower readers (UI, meters).
//
// Wait-free for writers: a Set that would contend with an in-progress Get is
// dropped, leaving the previous snapshot visible. Writes happen once per
// render block while reads are sporadic, so a dropped write is imperceptible.
type PositionStore struct {
	mu   sync.Mutex
	info PositionInfo
}

// Set stores a new snapshot unless a reader currently holds the lock.
func (s *PositionStore) Set(info PositionInfo) {
	if !s.mu.TryLock() {
		return
	}
	s.info = info
	s.mu.Unlock()
}

// Get returns the latest fully-written snapshot.
func (s *PositionStore) Get() PositionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}
