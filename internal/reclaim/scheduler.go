package reclaim

import (
	"log/slog"
	"sync"
	"time"

	"vocalless/internal/logging"
)

// Scheduler runs callbacks after a delay and tracks them until they fire.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]map[uint64]*time.Timer
	nextID  uint64
	stopped bool
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// Handle cancels one scheduled callback.
type Handle struct {
	s   *Scheduler
	key string
	id  uint64
}

// New constructs a Scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		timers: make(map[string]map[uint64]*time.Timer),
		logger: logging.NewComponentLogger(logger, "reclaim"),
	}
}

// After runs fn once delay has elapsed. After StopAll the callback is
// dropped and the returned handle is inert.
func (s *Scheduler) After(key string, delay time.Duration, fn func()) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return &Handle{}
	}
	s.nextID++
	id := s.nextID
	if s.timers[key] == nil {
		s.timers[key] = make(map[uint64]*time.Timer)
	}
	s.wg.Add(1)
	s.timers[key][id] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		if !s.release(key, id) {
			return
		}
		fn()
	})
	s.logger.Debug("reclaim scheduled",
		logging.String("key", key),
		logging.Duration("delay", delay),
	)
	return &Handle{s: s, key: key, id: id}
}

// Stop cancels the callback and reports whether it had not yet fired.
func (h *Handle) Stop() bool {
	if h == nil || h.s == nil {
		return false
	}
	return h.s.cancel(h.key, h.id)
}

// Pending reports how many callbacks are scheduled for key.
func (s *Scheduler) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers[key])
}

// Len reports how many callbacks are scheduled in total.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, group := range s.timers {
		n += len(group)
	}
	return n
}

// StopAll cancels every pending callback, refuses new ones, and waits for
// callbacks that were already running.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	s.stopped = true
	cancelled := 0
	for key, group := range s.timers {
		for id, timer := range group {
			if timer.Stop() {
				s.wg.Done()
				cancelled++
			}
			delete(group, id)
		}
		delete(s.timers, key)
	}
	s.mu.Unlock()
	s.wg.Wait()
	if cancelled > 0 {
		s.logger.Info("reclaim timers cancelled", logging.Int("count", cancelled))
	}
}

// release removes a firing timer. It returns false when the timer was
// cancelled concurrently.
func (s *Scheduler) release(key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := s.timers[key]
	if _, ok := group[id]; !ok {
		return false
	}
	delete(group, id)
	if len(group) == 0 {
		delete(s.timers, key)
	}
	return true
}

func (s *Scheduler) cancel(key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := s.timers[key]
	timer, ok := group[id]
	if !ok {
		return false
	}
	delete(group, id)
	if len(group) == 0 {
		delete(s.timers, key)
	}
	if timer.Stop() {
		s.wg.Done()
		return true
	}
	return false
}
