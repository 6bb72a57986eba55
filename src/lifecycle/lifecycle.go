// Package lifecycle drives the engine through its start/stop state machine.
//
// A Manager owns the ordering rules: event subscriptions are registered
// before the first sampling pass so no notification can fire into a
// half-built engine, and teardown stops the scheduler before releasing the
// subscriptions so no callback outlives the engine it triggers.
package lifecycle

import (
	"fmt"
	"log"
	"sync"

	"caret-tracker/src/scheduler"
	"caret-tracker/src/winevent"
)

// State represents the engine's position in its lifecycle.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Sampler is the scheduler surface the manager drives.
type Sampler interface {
	Start(mode scheduler.Mode)
	Trigger(reason string) bool
	Stop()
}

// Options configures a Manager.
type Options struct {
	Sampler Sampler
	Source  winevent.Source

	// OnStopped hooks run after the engine has fully stopped, in order.
	// Used to flush logs and remove run artifacts.
	OnStopped []func()
}

// Manager coordinates startup and shutdown of the sampling engine.
type Manager struct {
	sampler   Sampler
	source    winevent.Source
	onStopped []func()

	mu    sync.Mutex
	state State
}

// New creates a Manager in the stopped state.
func New(opts Options) (*Manager, error) {
	if opts.Sampler == nil {
		return nil, fmt.Errorf("lifecycle: sampler is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("lifecycle: event source is required")
	}
	return &Manager{
		sampler:   opts.Sampler,
		source:    opts.Source,
		onStopped: opts.OnStopped,
		state:     StateStopped,
	}, nil
}

// State returns the engine's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// transition moves from one state to another, reporting whether the move
// was legal from the current state.
func (m *Manager) transition(from, to State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != from {
		return false
	}
	m.state = to
	return true
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Start subscribes to window events and begins sampling. Subscriptions are
// registered before the scheduler runs its first pass; when none could be
// registered the engine falls back to timer-only sampling.
func (m *Manager) Start() error {
	if !m.transition(StateStopped, StateStarting) {
		return fmt.Errorf("lifecycle: engine is %s, not stopped", m.State())
	}

	log.Printf("Engine starting")

	active, err := m.source.Subscribe(func() {
		m.sampler.Trigger("notification")
	})
	if err != nil {
		m.setState(StateStopped)
		return fmt.Errorf("lifecycle: event subscription failed: %w", err)
	}

	mode := scheduler.NotifyDriven
	if active == 0 {
		mode = scheduler.TimerOnly
	}
	log.Printf("Event subscriptions active: %d of %d classes, sampling mode %s",
		active, len(winevent.Classes), mode)

	m.sampler.Start(mode)
	m.setState(StateRunning)
	log.Printf("Engine running")
	return nil
}

// Stop tears the engine down: scheduler first so no new pass starts, then
// the event subscriptions, then the registered hooks. Safe to call more
// than once; only the first call from the running state does work.
func (m *Manager) Stop() {
	if !m.transition(StateRunning, StateStopping) {
		return
	}

	log.Printf("Engine stopping")
	m.sampler.Stop()
	m.source.Unsubscribe()

	for _, hook := range m.onStopped {
		hook()
	}

	m.setState(StateStopped)
	log.Printf("Engine stopped")
}
