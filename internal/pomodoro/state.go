package pomodoro

import (
	"encoding/json"
	"math"
	"time"
)

const (
	DefaultFocusSeconds      = 25 * 60
	DefaultShortBreakSeconds = 5 * 60
	DefaultLongBreakSeconds  = 15 * 60
)

// Durations are step lengths in seconds.
type Durations struct {
	Focus      int `json:"focus_duration"`
	ShortBreak int `json:"short_break_duration"`
	LongBreak  int `json:"long_break_duration"`
}

func DefaultDurations() Durations {
	return Durations{
		Focus:      DefaultFocusSeconds,
		ShortBreak: DefaultShortBreakSeconds,
		LongBreak:  DefaultLongBreakSeconds,
	}
}

func (d Durations) For(mode Mode) int {
	switch mode {
	case ModeShortBreak:
		return d.ShortBreak
	case ModeLongBreak:
		return d.LongBreak
	default:
		return d.Focus
	}
}

// WithFallback replaces non-positive durations with the ones from fallback.
func (d Durations) WithFallback(fallback Durations) Durations {
	if d.Focus <= 0 {
		d.Focus = fallback.Focus
	}
	if d.ShortBreak <= 0 {
		d.ShortBreak = fallback.ShortBreak
	}
	if d.LongBreak <= 0 {
		d.LongBreak = fallback.LongBreak
	}
	return d
}

// State is the persisted Pomodoro record. UpdatedAt is unix seconds.
type State struct {
	CycleStep          int   `json:"cycle_step"`
	IsRunning          bool  `json:"is_running"`
	IsPaused           bool  `json:"is_paused"`
	TimeLeft           int   `json:"time_left"`
	FocusDuration      int   `json:"focus_duration"`
	ShortBreakDuration int   `json:"short_break_duration"`
	LongBreakDuration  int   `json:"long_break_duration"`
	AutoStartBreaks    bool  `json:"auto_start_breaks"`
	UpdatedAt          int64 `json:"updated_at"`
}

func DefaultState(d Durations) State {
	d = d.WithFallback(DefaultDurations())
	return State{
		CycleStep:          0,
		TimeLeft:           d.Focus,
		FocusDuration:      d.Focus,
		ShortBreakDuration: d.ShortBreak,
		LongBreakDuration:  d.LongBreak,
	}
}

func (s State) Mode() Mode {
	return ModeForStep(s.CycleStep)
}

func (s State) Durations() Durations {
	return Durations{Focus: s.FocusDuration, ShortBreak: s.ShortBreakDuration, LongBreak: s.LongBreakDuration}
}

// StepDuration is the configured length of the current step.
func (s State) StepDuration() int {
	return s.Durations().For(s.Mode())
}

// Sanitize repairs out of range fields using defaults. It never fails.
func Sanitize(s State, defaults Durations) State {
	defaults = defaults.WithFallback(DefaultDurations())
	if s.CycleStep < 0 || s.CycleStep >= StepCount {
		s = DefaultState(defaults)
		return s
	}
	d := s.Durations().WithFallback(defaults)
	s.FocusDuration = d.Focus
	s.ShortBreakDuration = d.ShortBreak
	s.LongBreakDuration = d.LongBreak
	if s.TimeLeft < 0 {
		s.TimeLeft = s.StepDuration()
	}
	if !s.IsRunning && s.TimeLeft > s.StepDuration() {
		s.TimeLeft = s.StepDuration()
	}
	if !s.IsRunning {
		s.IsPaused = false
	}
	return s
}

// Reconcile subtracts wall-clock time elapsed since the state was saved from
// a running, unpaused timer. A countdown that ran out while nobody was
// watching is stopped at zero; the completion is not replayed.
func Reconcile(s State, now time.Time) State {
	if !s.IsRunning || s.IsPaused {
		return s
	}
	if s.UpdatedAt > 0 {
		if elapsed := now.Unix() - s.UpdatedAt; elapsed > 0 {
			s.TimeLeft -= int(min(elapsed, int64(math.MaxInt32)))
		}
	}
	if s.TimeLeft <= 0 {
		s.TimeLeft = 0
		s.IsRunning = false
		s.IsPaused = false
	}
	return s
}

type rawState struct {
	CycleStep          *float64 `json:"cycle_step"`
	IsRunning          *bool    `json:"is_running"`
	IsPaused           *bool    `json:"is_paused"`
	TimeLeft           *float64 `json:"time_left"`
	FocusDuration      *float64 `json:"focus_duration"`
	ShortBreakDuration *float64 `json:"short_break_duration"`
	LongBreakDuration  *float64 `json:"long_break_duration"`
	AutoStartBreaks    *bool    `json:"auto_start_breaks"`
	UpdatedAt          *float64 `json:"updated_at"`
}

// DecodeState parses a stored record leniently. Missing or non-finite
// numbers fall back to defaults; undecodable input yields the default state.
func DecodeState(data []byte, defaults Durations) State {
	defaults = defaults.WithFallback(DefaultDurations())
	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return DefaultState(defaults)
	}

	s := DefaultState(defaults)
	if step, ok := wholeNumber(raw.CycleStep); ok && step >= 0 && step < StepCount {
		s.CycleStep = step
	}
	if v, ok := wholeNumber(raw.FocusDuration); ok && v > 0 {
		s.FocusDuration = v
	}
	if v, ok := wholeNumber(raw.ShortBreakDuration); ok && v > 0 {
		s.ShortBreakDuration = v
	}
	if v, ok := wholeNumber(raw.LongBreakDuration); ok && v > 0 {
		s.LongBreakDuration = v
	}
	s.TimeLeft = s.StepDuration()
	if v, ok := wholeNumber(raw.TimeLeft); ok && v >= 0 {
		s.TimeLeft = v
	}
	if raw.IsRunning != nil {
		s.IsRunning = *raw.IsRunning
	}
	if raw.IsPaused != nil {
		s.IsPaused = *raw.IsPaused
	}
	if raw.AutoStartBreaks != nil {
		s.AutoStartBreaks = *raw.AutoStartBreaks
	}
	if raw.UpdatedAt != nil && !math.IsNaN(*raw.UpdatedAt) && !math.IsInf(*raw.UpdatedAt, 0) && *raw.UpdatedAt > 0 {
		s.UpdatedAt = int64(*raw.UpdatedAt)
	}
	return Sanitize(s, defaults)
}

func wholeNumber(v *float64) (int, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	if *v > math.MaxInt32 || *v < math.MinInt32 {
		return 0, false
	}
	return int(math.Floor(*v)), true
}
