package dbus

import (
	"sync"
	"time"
)

// Scheduler runs one-shot expiry jobs keyed by notification id.
//
// Scheduling a job for an id that already has one replaces the registry entry but leaves
// the earlier job running. Jobs are only cancelled by Stop.
type Scheduler struct {
	mu      sync.Mutex
	seq     uint64
	pending map[uint64]*time.Timer
	latest  map[uint32]uint64
	stopped bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: make(map[uint64]*time.Timer),
		latest:  make(map[uint32]uint64),
	}
}

// Schedule runs fn after d on its own goroutine. Returns false once stopped.
func (s *Scheduler) Schedule(id uint32, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	s.seq++
	seq := s.seq
	s.latest[id] = seq
	s.pending[seq] = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.pending, seq)
		if s.latest[id] == seq {
			delete(s.latest, id)
		}
		s.mu.Unlock()

		fn()
	})
	return true
}

// Scheduled reports whether the latest job registered for id has not fired yet.
func (s *Scheduler) Scheduled(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.latest[id]
	return ok
}

// Pending returns the number of jobs that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending job. Jobs that already started still run to completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true

	for _, t := range s.pending {
		t.Stop()
	}
	clear(s.pending)
	clear(s.latest)
}
