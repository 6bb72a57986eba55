package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"caret-tracker/src/caret"
)

type locatorFunc func() (caret.Location, bool)

func (f locatorFunc) Locate() (caret.Location, bool) { return f() }

type resolverFunc func(uintptr) (string, string)

func (f resolverFunc) Resolve(w uintptr) (string, string) { return f(w) }

// queueLocator returns its queued results in order, then reports "no caret"
// forever.
type queueLocator struct {
	mu      sync.Mutex
	results []caret.Location
	found   []bool
}

func (q *queueLocator) push(loc caret.Location, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.results = append(q.results, loc)
	q.found = append(q.found, ok)
}

func (q *queueLocator) Locate() (caret.Location, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.results) == 0 {
		return caret.Location{}, false
	}
	loc, ok := q.results[0], q.found[0]
	q.results, q.found = q.results[1:], q.found[1:]
	return loc, ok
}

type recordingSink struct {
	mu      sync.Mutex
	samples []caret.Sample
	err     error
}

func (r *recordingSink) Persist(s caret.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.samples = append(r.samples, s)
	return nil
}

func (r *recordingSink) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func (r *recordingSink) last() caret.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples[len(r.samples)-1]
}

func notepadResolver(uintptr) (string, string) { return "Notepad", "notepad" }

// manualClock hands out strictly increasing timestamps.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestScheduler(t *testing.T, loc caret.Locator, sink Sink, interval time.Duration) *Scheduler {
	t.Helper()
	clock := &manualClock{now: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
	s, err := New(Options{
		Interval: interval,
		Locator:  loc,
		Resolver: resolverFunc(notepadResolver),
		Sink:     sink,
		Clock:    clock.Now,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNewValidatesOptions(t *testing.T) {
	loc := locatorFunc(func() (caret.Location, bool) { return caret.Location{}, false })
	res := resolverFunc(notepadResolver)
	sink := &recordingSink{}

	tests := []struct {
		name string
		opts Options
	}{
		{"ZeroInterval", Options{Interval: 0, Locator: loc, Resolver: res, Sink: sink}},
		{"NegativeInterval", Options{Interval: -time.Second, Locator: loc, Resolver: res, Sink: sink}},
		{"NilLocator", Options{Interval: time.Second, Resolver: res, Sink: sink}},
		{"NilResolver", Options{Interval: time.Second, Locator: loc, Sink: sink}},
		{"NilSink", Options{Interval: time.Second, Locator: loc, Resolver: res}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("Expected an options validation error")
			}
		})
	}
}

func TestStartRunsImmediatePass(t *testing.T) {
	loc := &queueLocator{}
	loc.push(caret.Location{X: 100, Y: 200, Window: 1}, true)
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, time.Hour)
	s.Start(TimerOnly)
	defer s.Stop()

	if sink.count() != 1 {
		t.Fatalf("Expected the startup pass to emit 1 sample, got %d", sink.count())
	}
	got := sink.last()
	if got.X != 100 || got.Y != 200 {
		t.Errorf("Expected (100,200), got (%d,%d)", got.X, got.Y)
	}
	if got.WindowTitle != "Notepad" || got.ProcessName != "notepad" {
		t.Errorf("Expected Notepad/notepad context, got %q/%q", got.WindowTitle, got.ProcessName)
	}
}

func TestSampleScenarioChain(t *testing.T) {
	// First-ever sample emits, an identical one does not, a moved one does.
	loc := &queueLocator{}
	loc.push(caret.Location{}, false) // startup pass: no caret yet
	loc.push(caret.Location{X: 100, Y: 200, Window: 1}, true)
	loc.push(caret.Location{X: 100, Y: 200, Window: 1}, true)
	loc.push(caret.Location{X: 100, Y: 205, Window: 1}, true)
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, time.Hour)
	s.Start(NotifyDriven)
	defer s.Stop()

	if sink.count() != 0 {
		t.Fatalf("Expected no emission while the locator finds nothing, got %d", sink.count())
	}
	if _, ok := s.LastSample(); ok {
		t.Fatal("Expected the last-observed slot to stay empty after an empty pass")
	}

	s.Trigger("notification")
	if sink.count() != 1 {
		t.Fatalf("Expected the first sample to be emitted, got %d emissions", sink.count())
	}

	s.Trigger("notification")
	if sink.count() != 1 {
		t.Fatalf("Expected no emission for an unchanged sample, got %d", sink.count())
	}

	s.Trigger("notification")
	if sink.count() != 2 {
		t.Fatalf("Expected the moved sample to be emitted, got %d emissions", sink.count())
	}
	if got := sink.last(); got.Y != 205 {
		t.Errorf("Expected updated y 205, got %d", got.Y)
	}

	last, ok := s.LastSample()
	if !ok || last.Y != 205 {
		t.Errorf("Expected last-observed sample with y 205, got %v (ok=%v)", last, ok)
	}
}

func TestEmptyLocateLeavesLastSampleUntouched(t *testing.T) {
	loc := &queueLocator{}
	loc.push(caret.Location{X: 10, Y: 20, Window: 1}, true)
	// Queue exhausted afterwards: every later pass finds no caret.
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, time.Hour)
	s.Start(NotifyDriven)
	defer s.Stop()

	before, ok := s.LastSample()
	if !ok {
		t.Fatal("Expected the startup pass to set the last-observed sample")
	}

	s.Trigger("notification")
	if sink.count() != 1 {
		t.Errorf("Expected no sink call for an empty pass, got %d persists", sink.count())
	}
	after, ok := s.LastSample()
	if !ok || !after.Matches(before) {
		t.Errorf("Expected last-observed sample unchanged, had %v, got %v", before, after)
	}
}

func TestConcurrentTriggerIsDroppedNotQueued(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	loc := locatorFunc(func() (caret.Location, bool) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return caret.Location{}, false // startup pass
		}
		close(started)
		<-release
		return caret.Location{X: 1, Y: 2, Window: 3}, true
	})
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, time.Hour)
	s.Start(NotifyDriven)
	defer s.Stop()

	first := make(chan bool, 1)
	go func() { first <- s.Trigger("notification") }()
	<-started

	// A second trigger while the pass is blocked inside the locator must be
	// dropped immediately, not queued behind it.
	if s.Trigger("timer") {
		t.Error("Expected the concurrent trigger to be dropped")
	}

	close(release)
	if !<-first {
		t.Error("Expected the first trigger to run its pass")
	}
	if sink.count() != 1 {
		t.Errorf("Expected exactly one pass to emit, got %d", sink.count())
	}
}

func TestTimerOnlyModeUsesFullInterval(t *testing.T) {
	loc := &queueLocator{}
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, 250*time.Millisecond)
	s.Start(TimerOnly)
	defer s.Stop()

	// All subscriptions failed: the timer is the sole trigger and must run
	// at the configured interval, not the relaxed safety-net rate.
	if got := s.Period(); got != 250*time.Millisecond {
		t.Errorf("Expected full 250ms fallback period, got %v", got)
	}
	if s.Mode() != TimerOnly {
		t.Errorf("Expected timer-only mode, got %v", s.Mode())
	}
}

func TestNotifyDrivenModeDoublesFallbackPeriod(t *testing.T) {
	loc := &queueLocator{}
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, 250*time.Millisecond)
	s.Start(NotifyDriven)
	defer s.Stop()

	if got := s.Period(); got != 500*time.Millisecond {
		t.Errorf("Expected doubled 500ms fallback period, got %v", got)
	}
}

func TestTimerDrivesPassesWithoutNotifications(t *testing.T) {
	var x int32
	loc := locatorFunc(func() (caret.Location, bool) {
		// A caret that moves every pass, so every tick emits.
		return caret.Location{X: int(atomic.AddInt32(&x, 1)), Y: 0, Window: 1}, true
	})
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, 10*time.Millisecond)
	s.Start(TimerOnly)
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for sink.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("Expected at least 3 timer-driven emissions, got %d", sink.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPersistFailureRetriesOnNextTrigger(t *testing.T) {
	loc := locatorFunc(func() (caret.Location, bool) {
		return caret.Location{X: 7, Y: 9, Window: 1}, true
	})
	sink := &recordingSink{}
	sink.setErr(errors.New("disk full"))

	s := newTestScheduler(t, loc, sink, time.Hour)
	s.Start(NotifyDriven)
	defer s.Stop()

	if _, ok := s.LastSample(); ok {
		t.Fatal("Expected no last-observed sample after a failed persist")
	}

	// The write recovers; the very next trigger must emit the same caret
	// state even though nothing has moved.
	sink.setErr(nil)
	s.Trigger("notification")
	if sink.count() != 1 {
		t.Fatalf("Expected the retry trigger to persist, got %d persists", sink.count())
	}
	if _, ok := s.LastSample(); !ok {
		t.Error("Expected the last-observed sample to be set after a successful persist")
	}
}

func TestPassPanicIsContained(t *testing.T) {
	var calls int32
	loc := locatorFunc(func() (caret.Location, bool) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			return caret.Location{}, false // startup pass
		case 2:
			panic("window vanished mid-query")
		default:
			return caret.Location{X: 3, Y: 4, Window: 1}, true
		}
	})
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, time.Hour)
	s.Start(NotifyDriven)
	defer s.Stop()

	if !s.Trigger("notification") {
		t.Fatal("Expected the panicking trigger to still count as run")
	}

	// The scheduler must keep sampling after a pass blew up.
	s.Trigger("notification")
	if sink.count() != 1 {
		t.Errorf("Expected sampling to continue after a panic, got %d persists", sink.count())
	}
}

func TestTriggerAfterStopDoesNothing(t *testing.T) {
	loc := locatorFunc(func() (caret.Location, bool) {
		return caret.Location{X: 1, Y: 1, Window: 1}, true
	})
	sink := &recordingSink{}

	s := newTestScheduler(t, loc, sink, time.Hour)
	s.Start(NotifyDriven)
	persisted := sink.count()

	s.Stop()
	s.Stop() // teardown may run more than once

	if s.Trigger("notification") {
		t.Error("Expected triggers after Stop to be refused")
	}
	if sink.count() != persisted {
		t.Errorf("Expected no persists after Stop, got %d new", sink.count()-persisted)
	}
}
