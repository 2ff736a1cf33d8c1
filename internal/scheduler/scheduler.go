// Package scheduler drives the face's periodic redraw while it is interactive.
package scheduler

import (
	"sync"
	"time"

	"github.com/chrissnell/weatherface/internal/log"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultPeriod is the interactive update rate. Seconds are not shown, so
// once a minute is enough.
const DefaultPeriod = time.Minute

// State is the scheduler's run state.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// PostFunc hands a function to the goroutine that owns the face. It returns
// false when that goroutine is gone and the function was dropped.
type PostFunc func(func()) bool

// Scheduler arms one timer at a time, aligned to multiples of its period.
// Timer callbacks never run the tick themselves: they post it to the owning
// goroutine together with the generation that armed them, and the tick is
// dropped if the scheduler was stopped, restarted or closed in between.
type Scheduler struct {
	clock  clockwork.Clock
	period time.Duration
	post   PostFunc
	redraw func()
	logger *zap.SugaredLogger

	mu     sync.Mutex
	state  State
	timer  clockwork.Timer
	gen    uint64
	closed bool
}

// New creates a stopped Scheduler. redraw is called on every tick. A nil post
// runs ticks directly on the timer goroutine.
func New(clock clockwork.Clock, period time.Duration, post PostFunc, redraw func(), logger *zap.SugaredLogger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	if post == nil {
		post = func(f func()) bool { f(); return true }
	}
	if redraw == nil {
		redraw = func() {}
	}
	return &Scheduler{
		clock:  clock,
		period: period,
		post:   post,
		redraw: redraw,
		logger: log.OrNop(logger),
	}
}

// NextDelay returns how long to wait from now until the next multiple of
// period since the Unix epoch. It is always in (0, period].
func NextDelay(now time.Time, period time.Duration) time.Duration {
	ms := period.Milliseconds()
	if ms <= 0 {
		return period
	}
	return time.Duration(ms-now.UnixMilli()%ms) * time.Millisecond
}

// Start arms the next aligned tick. Any pending tick is cleared first, so
// calling Start while running leaves exactly one tick pending.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.clearLocked()
	s.state = Running
	s.armLocked()
}

// Stop disarms the pending tick.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.state = Stopped
}

// Close stops the scheduler for good. Later Start calls are ignored and any
// tick already in flight is discarded.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.state = Stopped
	s.closed = true
}

// OnTick requests a redraw and, while running, arms the following tick.
func (s *Scheduler) OnTick() {
	s.redraw()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running && !s.closed && s.timer == nil {
		s.armLocked()
	}
}

// State reports whether the scheduler is running.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running is shorthand for State() == Running.
func (s *Scheduler) Running() bool {
	return s.State() == Running
}

// Pending returns the number of armed ticks: 0 or 1.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		return 1
	}
	return 0
}

func (s *Scheduler) clearLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// Invalidates callbacks from timers that already fired but whose tick
	// has not yet run on the owning goroutine.
	s.gen++
}

func (s *Scheduler) armLocked() {
	delay := NextDelay(s.clock.Now(), s.period)
	gen := s.gen
	s.timer = s.clock.AfterFunc(delay, func() {
		if !s.post(func() { s.fire(gen) }) {
			s.logger.Debug("dropping tick: owner is gone")
		}
	})
	s.logger.Debugf("next tick in %v", delay)
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != Running || s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.OnTick()
}
