// Package pomodoro implements the five-step focus/break cycle used by the
// dashboard timer.
//
// The Machine holds no timers of its own. Callers drive it with Tick and
// must pass the generation returned by Start: every Start installs a new
// generation, and Pause, Reset, forced mode switches and completions retire
// it, so a tick scheduled before any of those is ignored.
package pomodoro

import (
	"errors"
	"time"
)

var ErrRunning = errors.New("pomodoro: timer is running")

// Completion describes a step that counted down to zero.
type Completion struct {
	Mode     Mode
	FromStep int
	ToStep   int
	// FocusSeconds is set only when a focus step completed.
	FocusSeconds int
	// AutoStart asks the caller to Start the next step after a short delay.
	AutoStart bool
}

type TickResult struct {
	Accepted   bool
	Completion *Completion
}

type Machine struct {
	state      State
	defaults   Durations
	generation uint64
	stepTotal  int
}

func New(d Durations, autoStartBreaks bool) *Machine {
	d = d.WithFallback(DefaultDurations())
	s := DefaultState(d)
	s.AutoStartBreaks = autoStartBreaks
	return &Machine{state: s, defaults: d, stepTotal: s.TimeLeft}
}

// State returns a copy of the current state. UpdatedAt is whatever was last
// restored; use Snapshot for a record to persist.
func (m *Machine) State() State { return m.state }

// Snapshot returns the state stamped with now, ready to be saved.
func (m *Machine) Snapshot(now time.Time) State {
	s := m.state
	s.UpdatedAt = now.Unix()
	return s
}

func (m *Machine) Mode() Mode         { return m.state.Mode() }
func (m *Machine) Step() int          { return m.state.CycleStep }
func (m *Machine) TimeLeft() int      { return m.state.TimeLeft }
func (m *Machine) Running() bool      { return m.state.IsRunning }
func (m *Machine) Paused() bool       { return m.state.IsPaused }
func (m *Machine) Ticking() bool      { return m.state.IsRunning && !m.state.IsPaused }
func (m *Machine) Generation() uint64 { return m.generation }
func (m *Machine) StepTotal() int     { return m.stepTotal }

// Progress is the elapsed fraction of the current step in [0, 1].
func (m *Machine) Progress() float64 {
	total := m.stepTotal
	if total <= 0 {
		return 0
	}
	p := float64(total-m.state.TimeLeft) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Start begins (or resumes) the countdown and returns the tick generation
// the caller must pass to Tick.
func (m *Machine) Start() uint64 {
	m.cancel()
	if m.state.TimeLeft <= 0 {
		m.state.TimeLeft = m.state.StepDuration()
		m.stepTotal = m.state.TimeLeft
	}
	m.state.IsRunning = true
	m.state.IsPaused = false
	return m.generation
}

// Resume continues a paused countdown from the preserved time left.
func (m *Machine) Resume() uint64 {
	return m.Start()
}

// Pause suspends ticking. It reports false when the timer was not ticking.
func (m *Machine) Pause() bool {
	if !m.Ticking() {
		return false
	}
	m.cancel()
	m.state.IsPaused = true
	return true
}

// Toggle starts, pauses or resumes depending on the current flags.
func (m *Machine) Toggle() (generation uint64, ticking bool) {
	if m.Ticking() {
		m.Pause()
		return m.generation, false
	}
	return m.Start(), true
}

// Reset stops the timer and restores the full duration of the current step.
func (m *Machine) Reset() {
	m.cancel()
	m.state.IsRunning = false
	m.state.IsPaused = false
	m.state.TimeLeft = m.state.StepDuration()
	m.stepTotal = m.state.TimeLeft
}

// SwitchMode moves to the step chosen for mode. A running (or paused) timer
// is refused with ErrRunning unless force is set, in which case it is reset
// first.
func (m *Machine) SwitchMode(mode Mode, force bool) error {
	if !mode.IsValid() {
		return errors.New("pomodoro: unknown mode " + string(mode))
	}
	if m.state.IsRunning {
		if !force {
			return ErrRunning
		}
		m.Reset()
	}
	m.cancel()
	m.state.CycleStep = StepForMode(mode, m.state.CycleStep)
	m.state.TimeLeft = m.state.StepDuration()
	m.stepTotal = m.state.TimeLeft
	return nil
}

// Tick decrements the countdown by one second if generation is current.
func (m *Machine) Tick(generation uint64) TickResult {
	if generation != m.generation || !m.Ticking() {
		return TickResult{}
	}
	if m.state.TimeLeft > 0 {
		m.state.TimeLeft--
	}
	if m.state.TimeLeft > 0 {
		return TickResult{Accepted: true}
	}
	c := m.complete()
	return TickResult{Accepted: true, Completion: &c}
}

func (m *Machine) complete() Completion {
	m.cancel()
	from := m.state.CycleStep
	completed := m.state.Mode()
	c := Completion{Mode: completed, FromStep: from}
	if completed == ModeFocus {
		c.FocusSeconds = m.stepTotal
	}

	m.state.CycleStep = (from + 1) % StepCount
	m.state.TimeLeft = m.state.StepDuration()
	m.stepTotal = m.state.TimeLeft
	m.state.IsRunning = false
	m.state.IsPaused = false

	c.ToStep = m.state.CycleStep
	c.AutoStart = m.state.AutoStartBreaks && m.state.Mode() != ModeFocus
	return c
}

// SetDurations applies new step lengths. A stopped timer is retargeted to
// the new length of its current step; an in-flight countdown is untouched.
func (m *Machine) SetDurations(d Durations) {
	d = d.WithFallback(m.state.Durations())
	m.state.FocusDuration = d.Focus
	m.state.ShortBreakDuration = d.ShortBreak
	m.state.LongBreakDuration = d.LongBreak
	if !m.state.IsRunning {
		m.state.TimeLeft = m.state.StepDuration()
		m.stepTotal = m.state.TimeLeft
	}
}

func (m *Machine) SetAutoStartBreaks(on bool) {
	m.state.AutoStartBreaks = on
}

// Restore replaces the state with a persisted record, reconciling elapsed
// wall-clock time. It returns the generation to tick with and whether the
// countdown should resume.
func (m *Machine) Restore(s State, now time.Time) (uint64, bool) {
	m.cancel()
	s = Reconcile(Sanitize(s, m.defaults), now)
	m.state = s
	m.stepTotal = s.StepDuration()
	if s.TimeLeft > m.stepTotal {
		m.stepTotal = s.TimeLeft
	}
	return m.generation, m.Ticking()
}

func (m *Machine) cancel() {
	m.generation++
}
