// Package autosave debounces host events into auto-saves of the active
// project.
package autosave

import (
	"sync"
	"time"
)

// DefaultDelay is the quiescence window before a scheduled save runs.
const DefaultDelay = 2000 * time.Millisecond

// Scheduler runs fn once the delay has elapsed since the most recent
// Schedule call. It owns its timer; a superseded timer never fires fn.
type Scheduler struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewScheduler returns a Scheduler for fn. A non-positive delay uses
// DefaultDelay.
func NewScheduler(delay time.Duration, fn func()) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Scheduler{delay: delay, fn: fn}
}

// Delay returns the quiescence window.
func (s *Scheduler) Delay() time.Duration { return s.delay }

// Schedule cancels any pending run and arms a new one.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.disarm()
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

// disarm drops the pending timer. The generation bump makes a timer that
// already fired and is waiting on mu a no-op. Callers hold mu.
func (s *Scheduler) disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()
	s.fn()
}

// Cancel drops a pending run without running it.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarm()
}

// Pending reports whether a run is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Flush runs a pending save immediately, on the caller's goroutine, and
// reports whether there was one.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	if s.timer == nil {
		s.mu.Unlock()
		return false
	}
	s.disarm()
	s.mu.Unlock()
	s.fn()
	return true
}

// Stop cancels any pending run and ignores later Schedule calls.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarm()
	s.stopped = true
}
