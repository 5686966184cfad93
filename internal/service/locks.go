package service

import "sync"

// stationLocks serializes capacity-affecting operations per station.
// Locks are created lazily and never removed; the set of stations is small.
type stationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newStationLocks() *stationLocks {
	return &stationLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for stationID and returns its unlock func.
func (s *stationLocks) lock(stationID string) func() {
	s.mu.Lock()
	m, ok := s.locks[stationID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[stationID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
