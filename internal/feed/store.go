package feed

import (
	"sync"

	"github.com/whoomp/whoomp/internal/protocol"
)

// Store keeps the most recent accepted frames for the aggregate endpoints.
type Store struct {
	mu     sync.RWMutex
	frames [][]byte
	max    int
	total  int
}

// NewStore creates a store holding at most max frames. max <= 0 means no
// limit.
func NewStore(max int) *Store {
	return &Store{max: max}
}

// Add retains a copy of raw, evicting the oldest frame when full.
func (s *Store) Add(raw []byte) {
	cp := append([]byte(nil), raw...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if s.max > 0 && len(s.frames) >= s.max {
		copy(s.frames, s.frames[1:])
		s.frames[len(s.frames)-1] = cp
		return
	}
	s.frames = append(s.frames, cp)
}

// Len returns the number of retained frames.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// Total returns the number of frames ever added.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Snapshot returns the retained frames, oldest first.
func (s *Store) Snapshot() [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

// Series returns the heart-rate series of the retained frames.
func (s *Store) Series() []protocol.HeartRateSample {
	return protocol.ExtractHeartRateSeries(s.Snapshot())
}

// Commands returns the distinct (type, command) pairs of the retained
// frames, sorted.
func (s *Store) Commands() []protocol.CommandKey {
	return protocol.ExtractUniqueCommands(s.Snapshot()).Sorted()
}
