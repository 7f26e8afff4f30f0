package canopy

import (
	"sync"
	"time"
)

// Scheduler is a cooperative task queue owned by one thread's loop. Closures
// may be enqueued from any goroutine; they run in enqueue order on the owning
// thread's next Update, once per loop iteration. This is the only sanctioned
// way to mutate state owned by a different thread.
type Scheduler struct {
	mu     sync.Mutex
	queue  []func()
	runBuf []func() // reused drain buffer, touched only by the owning thread
	timed  []delayedTask
}

type delayedTask struct {
	fn  func()
	due time.Time
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add enqueues fn to run on the owning thread's next Update.
// Panics if fn is nil.
func (s *Scheduler) Add(fn func()) {
	if fn == nil {
		panic("canopy: cannot schedule nil func")
	}
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
}

// AddDelayed enqueues fn to run on the first Update at or after delay from
// now. Panics if fn is nil.
func (s *Scheduler) AddDelayed(fn func(), delay time.Duration) {
	if fn == nil {
		panic("canopy: cannot schedule nil func")
	}
	task := delayedTask{fn: fn, due: time.Now().Add(delay)}
	s.mu.Lock()
	s.timed = append(s.timed, task)
	s.mu.Unlock()
}

// Pending returns the number of tasks waiting to run, including delayed
// tasks not yet due.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) + len(s.timed)
}

// Update runs every queued task plus any due delayed tasks, in enqueue order,
// and returns how many ran. Tasks enqueued by a running task execute on the
// next Update, not this one. Must be called from the owning thread only.
func (s *Scheduler) Update() int {
	now := time.Now()

	s.mu.Lock()
	s.runBuf = s.runBuf[:0]

	// Due delayed tasks run before this iteration's plain queue so a delay
	// never jumps ahead of work scheduled earlier.
	kept := s.timed[:0]
	for _, t := range s.timed {
		if !t.due.After(now) {
			s.runBuf = append(s.runBuf, t.fn)
		} else {
			kept = append(kept, t)
		}
	}
	s.timed = kept

	s.runBuf = append(s.runBuf, s.queue...)
	s.queue = s.queue[:0]
	s.mu.Unlock()

	for _, fn := range s.runBuf {
		fn()
	}
	return len(s.runBuf)
}
