package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/logging"
)

// Scheduler runs a deletion for an id after a fixed delay. Scheduling an id
// again restarts its delay; Cancel drops it. Close runs everything still
// pending at once and waits for running deletions.
type Scheduler struct {
	delay time.Duration
	run   func(ctx context.Context, id string) error
	log   logging.Logger

	mu      sync.Mutex
	pending map[string]*scheduled
	closed  bool
	wg      sync.WaitGroup
}

type scheduled struct {
	timer *time.Timer
}

func NewScheduler(delay time.Duration, run func(ctx context.Context, id string) error, log logging.Logger) *Scheduler {
	return &Scheduler{
		delay:   delay,
		run:     run,
		log:     log,
		pending: make(map[string]*scheduled),
	}
}

// Schedule arms a deletion of id. It returns false once the scheduler is
// closed.
func (s *Scheduler) Schedule(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if old, ok := s.pending[id]; ok && old.timer.Stop() {
		s.wg.Done()
	}

	e := &scheduled{}
	s.wg.Add(1)
	s.pending[id] = e
	// fire blocks on s.mu until this method returns, so e.timer is set
	// before anyone reads it.
	e.timer = time.AfterFunc(s.delay, func() { s.fire(id, e) })
	return true
}

func (s *Scheduler) fire(id string, e *scheduled) {
	defer s.wg.Done()

	s.mu.Lock()
	if s.pending[id] != e {
		// superseded or cancelled
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.mu.Unlock()

	s.execute(id)
}

func (s *Scheduler) execute(id string) {
	ctx := context.Background()
	if err := s.run(ctx, id); err != nil {
		s.log.Error(ctx, "scheduled deletion failed", "file_id", id, "error", err.Error())
		return
	}
	s.log.Info(ctx, "scheduled deletion done", "file_id", id)
}

// Cancel drops a pending deletion of id and reports whether one existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	if e.timer.Stop() {
		s.wg.Done()
	}
	return true
}

// Pending is the number of armed deletions.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// IsPending reports whether a deletion of id is armed.
func (s *Scheduler) IsPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// Close stops accepting work, runs every pending deletion immediately and
// waits until all deletions finished or ctx is done.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for id, e := range s.pending {
		// a timer that already fired finds its entry and runs by itself
		if e.timer.Stop() {
			delete(s.pending, id)
			go func(id string) {
				defer s.wg.Done()
				s.execute(id)
			}(id)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
