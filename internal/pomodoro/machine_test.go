package pomodoro

import (
	"errors"
	"testing"
	"time"
)

func shortDurations() Durations {
	return Durations{Focus: 3, ShortBreak: 2, LongBreak: 4}
}

func runToCompletion(t *testing.T, m *Machine) *Completion {
	t.Helper()
	gen := m.Start()
	for i := 0; i < 10_000; i++ {
		res := m.Tick(gen)
		if !res.Accepted {
			t.Fatalf("tick %d rejected", i)
		}
		if res.Completion != nil {
			return res.Completion
		}
	}
	t.Fatal("step never completed")
	return nil
}

func TestModeForStepTable(t *testing.T) {
	want := []Mode{ModeFocus, ModeShortBreak, ModeFocus, ModeShortBreak, ModeLongBreak}
	for step, mode := range want {
		if got := ModeForStep(step); got != mode {
			t.Fatalf("step %d mode = %s, want %s", step, got, mode)
		}
	}
	if ModeForStep(5) != ModeFocus || ModeForStep(-1) != ModeLongBreak {
		t.Fatal("expected out of range steps to wrap")
	}
}

func TestStepForModePrefersSecondHalf(t *testing.T) {
	cases := []struct {
		mode    Mode
		current int
		want    int
	}{
		{ModeFocus, 0, 0},
		{ModeFocus, 1, 0},
		{ModeFocus, 2, 2},
		{ModeFocus, 3, 2},
		{ModeFocus, 4, 0},
		{ModeShortBreak, 0, 1},
		{ModeShortBreak, 2, 3},
		{ModeShortBreak, 3, 3},
		{ModeShortBreak, 4, 1},
		{ModeLongBreak, 0, 4},
		{ModeLongBreak, 3, 4},
	}
	for _, tc := range cases {
		if got := StepForMode(tc.mode, tc.current); got != tc.want {
			t.Fatalf("StepForMode(%s, %d) = %d, want %d", tc.mode, tc.current, got, tc.want)
		}
	}
}

func TestCycleAdvancesAndWraps(t *testing.T) {
	m := New(shortDurations(), false)
	wantSteps := []int{1, 2, 3, 4, 0}
	for _, want := range wantSteps {
		c := runToCompletion(t, m)
		if c.ToStep != want || m.Step() != want {
			t.Fatalf("expected step %d, got completion=%+v machine=%d", want, c, m.Step())
		}
		if m.Running() || m.Paused() {
			t.Fatalf("expected stopped after completion, state=%+v", m.State())
		}
		if m.TimeLeft() != shortDurations().For(ModeForStep(want)) {
			t.Fatalf("expected full duration of new step, got %d", m.TimeLeft())
		}
	}
}

func TestFocusCompletionReportsFocusSeconds(t *testing.T) {
	m := New(shortDurations(), false)
	c := runToCompletion(t, m)
	if c.Mode != ModeFocus || c.FocusSeconds != 3 {
		t.Fatalf("unexpected focus completion: %+v", c)
	}
	c = runToCompletion(t, m)
	if c.Mode != ModeShortBreak || c.FocusSeconds != 0 {
		t.Fatalf("break completion must not carry focus seconds: %+v", c)
	}
}

func TestAutoStartOnlyIntoBreaks(t *testing.T) {
	m := New(shortDurations(), true)
	c := runToCompletion(t, m)
	if !c.AutoStart {
		t.Fatal("expected auto start into short break")
	}
	c = runToCompletion(t, m)
	if c.AutoStart {
		t.Fatal("break followed by focus must not auto start")
	}

	m = New(shortDurations(), false)
	if c := runToCompletion(t, m); c.AutoStart {
		t.Fatal("auto start disabled must not request start")
	}
}

func TestPauseResumePreservesTimeLeft(t *testing.T) {
	m := New(Durations{Focus: 60, ShortBreak: 5, LongBreak: 15}, false)
	gen := m.Start()
	for i := 0; i < 7; i++ {
		m.Tick(gen)
	}
	if !m.Pause() {
		t.Fatal("expected pause to succeed")
	}
	before := m.TimeLeft()
	if res := m.Tick(gen); res.Accepted {
		t.Fatal("tick while paused must be ignored")
	}
	if m.TimeLeft() != before {
		t.Fatalf("time changed while paused: %d -> %d", before, m.TimeLeft())
	}
	gen = m.Resume()
	if m.TimeLeft() != before || !m.Ticking() {
		t.Fatalf("resume lost state: %+v", m.State())
	}
	m.Tick(gen)
	if m.TimeLeft() != before-1 {
		t.Fatalf("expected countdown to continue, got %d", m.TimeLeft())
	}
}

func TestStaleGenerationIgnored(t *testing.T) {
	m := New(Durations{Focus: 60, ShortBreak: 5, LongBreak: 15}, false)
	old := m.Start()
	current := m.Start()
	if old == current {
		t.Fatal("expected a new generation on each start")
	}
	if res := m.Tick(old); res.Accepted {
		t.Fatal("stale tick accepted")
	}

	m.Reset()
	if res := m.Tick(current); res.Accepted {
		t.Fatal("tick after reset accepted")
	}
	if m.TimeLeft() != 60 {
		t.Fatalf("stale tick overwrote reset value: %d", m.TimeLeft())
	}
}

func TestResetRestoresCurrentStepDuration(t *testing.T) {
	m := New(shortDurations(), false)
	runToCompletion(t, m)
	gen := m.Start()
	m.Tick(gen)
	m.Reset()
	if m.Step() != 1 || m.TimeLeft() != shortDurations().ShortBreak {
		t.Fatalf("reset must restore current step duration, state=%+v", m.State())
	}
	if m.Running() || m.Paused() {
		t.Fatalf("reset must stop the timer, state=%+v", m.State())
	}
}

func TestSwitchModeRequiresStoppedUnlessForced(t *testing.T) {
	m := New(shortDurations(), false)
	gen := m.Start()
	if err := m.SwitchMode(ModeLongBreak, false); !errors.Is(err, ErrRunning) {
		t.Fatalf("expected ErrRunning, got %v", err)
	}
	if err := m.SwitchMode(ModeLongBreak, true); err != nil {
		t.Fatalf("forced switch failed: %v", err)
	}
	if m.Step() != 4 || m.Running() || m.TimeLeft() != 4 {
		t.Fatalf("unexpected state after forced switch: %+v", m.State())
	}
	if res := m.Tick(gen); res.Accepted {
		t.Fatal("tick from before the switch accepted")
	}

	m.Start()
	m.Pause()
	if err := m.SwitchMode(ModeFocus, false); !errors.Is(err, ErrRunning) {
		t.Fatalf("paused timer counts as running, got %v", err)
	}
}

func TestSetDurationsRetargetsOnlyWhenStopped(t *testing.T) {
	m := New(Durations{Focus: 60, ShortBreak: 5, LongBreak: 15}, false)
	m.SetDurations(Durations{Focus: 90})
	if m.TimeLeft() != 90 {
		t.Fatalf("expected retarget to 90, got %d", m.TimeLeft())
	}
	if m.State().ShortBreakDuration != 5 {
		t.Fatalf("zero durations must keep previous values: %+v", m.State())
	}

	gen := m.Start()
	m.Tick(gen)
	m.SetDurations(Durations{Focus: 30, ShortBreak: 5, LongBreak: 15})
	if m.TimeLeft() != 89 {
		t.Fatalf("in-flight countdown changed: %d", m.TimeLeft())
	}
	if m.State().FocusDuration != 30 {
		t.Fatalf("expected stored duration update, got %+v", m.State())
	}
}

func TestRestoreReconcilesElapsedTime(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	m := New(DefaultDurations(), false)
	saved := DefaultState(DefaultDurations())
	saved.IsRunning = true
	saved.TimeLeft = 120
	saved.UpdatedAt = now.Add(-90 * time.Second).Unix()

	gen, ticking := m.Restore(saved, now)
	if !ticking || m.TimeLeft() != 30 {
		t.Fatalf("expected running with 30s left, got ticking=%v state=%+v", ticking, m.State())
	}
	if res := m.Tick(gen); !res.Accepted || m.TimeLeft() != 29 {
		t.Fatalf("expected restored generation to tick, got %+v left=%d", res, m.TimeLeft())
	}
}

func TestRestoreExpiredCountdownStopsWithoutCompletion(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	m := New(DefaultDurations(), true)
	saved := DefaultState(DefaultDurations())
	saved.IsRunning = true
	saved.TimeLeft = 10
	saved.UpdatedAt = now.Add(-20 * time.Second).Unix()

	_, ticking := m.Restore(saved, now)
	if ticking || m.Running() {
		t.Fatalf("expected not running, state=%+v", m.State())
	}
	if m.TimeLeft() != 0 || m.Step() != 0 {
		t.Fatalf("expected clamp at zero on the same step, state=%+v", m.State())
	}
}

func TestRestorePausedKeepsTimeLeft(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	m := New(DefaultDurations(), false)
	saved := DefaultState(DefaultDurations())
	saved.IsRunning = true
	saved.IsPaused = true
	saved.TimeLeft = 100
	saved.UpdatedAt = now.Add(-time.Hour).Unix()

	_, ticking := m.Restore(saved, now)
	if ticking || m.TimeLeft() != 100 || !m.Paused() {
		t.Fatalf("paused state must not be reconciled, state=%+v", m.State())
	}
}

func TestSnapshotStampsUpdatedAt(t *testing.T) {
	now := time.Unix(1_760_000_123, 0)
	m := New(DefaultDurations(), true)
	s := m.Snapshot(now)
	if s.UpdatedAt != now.Unix() || !s.AutoStartBreaks || s.TimeLeft != DefaultFocusSeconds {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}
