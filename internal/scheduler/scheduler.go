package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
	"github.com/bashhack/autopush/internal/logger"
	"github.com/bashhack/autopush/internal/notify"
)

// IntervalSource returns the current interval in minutes.
type IntervalSource func() float64

// CycleFunc runs one commit cycle. The context it receives is never
// cancelled by the scheduler.
type CycleFunc func(ctx context.Context)

// TriggerOutcome reports what an admission attempt did.
type TriggerOutcome int

const (
	// Ran means the cycle was admitted and has finished.
	Ran TriggerOutcome = iota

	// Skipped means another cycle held the run-state flag.
	Skipped
)

func (o TriggerOutcome) String() string {
	switch o {
	case Ran:
		return "ran"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Scheduler owns the repeating timer and the run-state flag.
type Scheduler struct {
	interval  IntervalSource
	cycle     CycleFunc
	notifier  notify.Notifier
	logger    logger.Logger
	newTicker TickerFactory

	busy atomic.Bool

	mu          sync.Mutex
	base        context.Context
	stop        context.CancelFunc
	cancelTimer func()
	period      time.Duration
	wg          sync.WaitGroup
}

// New creates a Scheduler backed by time.Ticker.
func New(interval IntervalSource, cycle CycleFunc, notifier notify.Notifier, log logger.Logger) *Scheduler {
	return NewWithTicker(interval, cycle, notifier, log, NewRealTicker)
}

// NewWithTicker creates a Scheduler with a custom ticker factory
func NewWithTicker(
	interval IntervalSource,
	cycle CycleFunc,
	notifier notify.Notifier,
	log logger.Logger,
	newTicker TickerFactory,
) *Scheduler {
	if notifier == nil {
		notifier = notify.NotifierFunc(func(string) {})
	}
	if log == nil {
		log = logger.Nop()
	}
	if newTicker == nil {
		newTicker = NewRealTicker
	}
	return &Scheduler{
		interval:  interval,
		cycle:     cycle,
		notifier:  notifier,
		logger:    log,
		newTicker: newTicker,
	}
}

// Start installs the timer for the current interval. The timer runs until
// ctx is done or Stop is called. Start does not block.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.base != nil {
		s.mu.Unlock()
		return autopushErrors.New("scheduler already started")
	}
	s.base, s.stop = context.WithCancel(ctx)
	s.mu.Unlock()

	s.Reschedule()
	return nil
}

// Stop removes the timer. A cycle already running is left to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	if s.stop != nil {
		s.stop()
	}
	s.base, s.stop = nil, nil
	s.period = 0
}

// Wait blocks until every timer goroutine and timer-run cycle has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Reschedule replaces the timer using the interval currently reported by
// the IntervalSource. A disabled interval leaves no timer installed.
func (s *Scheduler) Reschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	s.period = 0

	minutes := s.interval()
	period, ok := Period(minutes)
	if !ok {
		s.logger.Info("Auto commit timer disabled (intervalMinutes=%v)", minutes)
		return
	}
	s.period = period

	if s.base == nil {
		return
	}

	ctx, cancel := context.WithCancel(s.base)
	ticker := s.newTicker(period)
	s.cancelTimer = func() {
		cancel()
		ticker.Stop()
	}

	s.logger.Info("Auto commit timer set to %s", period)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, ticker)
	}()
}

// Period returns the active timer period, or false when no timer is installed.
func (s *Scheduler) Period() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period, s.cancelTimer != nil
}

// Busy reports whether a cycle is running.
func (s *Scheduler) Busy() bool {
	return s.busy.Load()
}

// Trigger runs a cycle on demand and blocks until it finishes. If a cycle is
// already running it shows the already-running notice and returns Skipped.
func (s *Scheduler) Trigger(ctx context.Context) TriggerOutcome {
	outcome := s.admit(ctx)
	if outcome == Skipped {
		s.notifier.Notice(notify.MsgAlreadyRunning)
	}
	return outcome
}

// tick admits a timer-driven cycle and runs it on its own goroutine so the
// loop keeps draining the ticker. Ticks that arrive while any cycle runs are
// dropped.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Info("Timer fired while a cycle was running; skipping")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

func (s *Scheduler) admit(ctx context.Context) TriggerOutcome {
	if !s.busy.CompareAndSwap(false, true) {
		return Skipped
	}
	s.run(ctx)
	return Ran
}

// run executes the cycle for a caller that already holds the flag.
func (s *Scheduler) run(ctx context.Context) {
	defer s.busy.Store(false)
	s.cycle(context.WithoutCancel(ctx))
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) cancelTimerLocked() {
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
}
