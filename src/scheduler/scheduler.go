// Package scheduler drives caret sampling from two concurrent trigger
// sources: OS UI-change notifications and a periodic fallback timer. Exactly
// one sampling pass runs at a time; a trigger that arrives while a pass is in
// flight is dropped, never queued.
package scheduler

import (
	"errors"
	"log"
	"sync"
	"time"

	"caret-tracker/src/caret"
	"caret-tracker/src/wininfo"
)

// Mode selects which trigger source carries the sampling cadence.
type Mode int

const (
	// NotifyDriven means OS notifications are the primary trigger and the
	// fallback timer runs at double the configured interval as a safety net.
	NotifyDriven Mode = iota
	// TimerOnly means no notification subscriptions are live and the timer
	// alone must meet the configured responsiveness target.
	TimerOnly
)

func (m Mode) String() string {
	switch m {
	case NotifyDriven:
		return "notify-driven"
	case TimerOnly:
		return "timer-only"
	default:
		return "unknown"
	}
}

// Sink persists an emitted sample.
type Sink interface {
	Persist(caret.Sample) error
}

// Options configure a Scheduler. Locator, Resolver, and Sink are required;
// Clock defaults to time.Now.
type Options struct {
	Interval time.Duration
	Locator  caret.Locator
	Resolver wininfo.Resolver
	Sink     Sink
	Clock    func() time.Time
}

// Scheduler owns the last-observed sample and the fallback timer. One mutex
// serializes sampling passes and guards both; triggers use TryLock so a
// concurrent trigger is skipped instead of blocking behind the in-flight
// pass.
type Scheduler struct {
	interval time.Duration
	locator  caret.Locator
	resolver wininfo.Resolver
	sink     Sink
	clock    func() time.Time

	mu      sync.Mutex
	mode    Mode
	period  time.Duration
	timer   *time.Timer
	last    *caret.Sample
	running bool
}

// New validates options and returns a stopped scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Interval <= 0 {
		return nil, errors.New("sampling interval must be positive")
	}
	if opts.Locator == nil {
		return nil, errors.New("locator is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("sink is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		interval: opts.Interval,
		locator:  opts.Locator,
		resolver: opts.Resolver,
		sink:     opts.Sink,
		clock:    clock,
	}, nil
}

// Start fixes the trigger mode, runs one immediate pass so the state file is
// populated without waiting a full interval, and arms the fallback timer.
func (s *Scheduler) Start(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.mode = mode
	s.period = s.interval
	if mode == NotifyDriven {
		// Notifications carry the cadence; the timer is only a safety net.
		s.period = 2 * s.interval
	}
	log.Printf("Scheduler: starting in %s mode, fallback timer %s", mode, s.period)
	s.samplePassLocked("startup")
	s.armLocked()
}

// Trigger runs one sampling pass unless another is already in flight, in
// which case it reports false and the trigger is dropped. The fallback timer
// is disarmed for the duration of the pass and re-armed afterwards, so a
// burst of notifications keeps pushing the next tick out. Reason names the
// trigger source for the log.
func (s *Scheduler) Trigger(reason string) bool {
	if !s.mu.TryLock() {
		log.Printf("Scheduler: %s trigger skipped, a sampling pass is already in flight", reason)
		return false
	}
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.timer.Stop()
	s.samplePassLocked(reason)
	s.armLocked()
	return true
}

// Stop halts timer ticks. It waits for any in-flight pass to finish rather
// than aborting it mid-query. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.timer.Stop()
	log.Printf("Scheduler: stopped")
}

// Mode reports the trigger mode fixed at Start.
func (s *Scheduler) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Period reports the effective fallback timer period: the configured
// interval in timer-only mode, double that when notifications are flowing.
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// LastSample returns the most recently emitted sample, if any.
func (s *Scheduler) LastSample() (caret.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return caret.Sample{}, false
	}
	return *s.last, true
}

func (s *Scheduler) armLocked() {
	if !s.running {
		return
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.period, func() { s.Trigger("timer") })
		return
	}
	s.timer.Reset(s.period)
}

// samplePassLocked runs one locate -> resolve -> detect -> persist cycle.
// The caller holds s.mu. Nothing raised here may reach the trigger source:
// one failed pass must never halt subsequent sampling.
func (s *Scheduler) samplePassLocked(reason string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Scheduler: sampling pass (%s) panicked: %v", reason, r)
		}
	}()

	loc, ok := s.locator.Locate()
	if !ok {
		// The locator already logged which expected-absence case ended the
		// pass; the last-observed sample stays as it was.
		return
	}
	title, process := s.resolver.Resolve(loc.Window)
	sample := caret.Sample{
		X:           loc.X,
		Y:           loc.Y,
		Timestamp:   s.clock().UTC(),
		WindowTitle: title,
		ProcessName: process,
	}

	if !caret.ShouldEmit(sample, s.last) {
		return
	}
	if err := s.sink.Persist(sample); err != nil {
		// Leave the last-observed slot untouched so the next natural
		// trigger retries the write even if the caret has not moved.
		log.Printf("Scheduler: failed to persist %v: %v", sample, err)
		return
	}
	s.last = &sample
	log.Printf("Scheduler: emitted %v (%s trigger)", sample, reason)
}
