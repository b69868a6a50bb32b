package update

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusd/internal/api"
	"github.com/sandeepkv93/focusd/internal/client"
	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/pomodoro"
	"github.com/sandeepkv93/focusd/internal/stats"
)

type fakeBackend struct {
	mu        sync.Mutex
	tasks     []model.Task
	focus     *model.CurrentFocus
	saved     map[string]pomodoro.State
	completed []int
	err       error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{saved: map[string]pomodoro.State{}}
}

func (f *fakeBackend) ListTasks(context.Context, model.TaskState) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Task(nil), f.tasks...), f.err
}

func (f *fakeBackend) CreateTask(_ context.Context, in api.TaskInput) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := model.Task{ID: "new-1", Title: in.Title, State: model.TaskStateOpen}
	f.tasks = append(f.tasks, t)
	return t, f.err
}

func (f *fakeBackend) CurrentFocus(context.Context) (*model.CurrentFocus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focus, f.err
}

func (f *fakeBackend) GetPomodoro(_ context.Context, clientID string) (pomodoro.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.saved[clientID]
	if !ok {
		return pomodoro.State{}, client.ErrNotFound
	}
	return s, nil
}

func (f *fakeBackend) PutPomodoro(_ context.Context, clientID string, s pomodoro.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[clientID] = s
	return f.err
}

func (f *fakeBackend) FocusCompleted(_ context.Context, secs int) (stats.DayPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, secs)
	return stats.DayPoint{Day: "2026-10-16", FocusSeconds: secs, Sessions: len(f.completed)}, f.err
}

func (f *fakeBackend) DailyStats(context.Context, int) ([]stats.DayPoint, error) {
	return []stats.DayPoint{{Day: "2026-10-15"}, {Day: "2026-10-16", FocusSeconds: 1500, Sessions: 1}}, nil
}

func (f *fakeBackend) Usage(_ context.Context, from, to time.Time) (api.UsageReport, error) {
	return api.UsageReport{
		From:         from,
		To:           to,
		TotalSeconds: 600,
		Slices:       []stats.PieSlice{{AppID: "code", Seconds: 600, Percent: 100, EndDeg: 360, Color: "#7aa2f7"}},
	}, nil
}

var testNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, backend *fakeBackend, d pomodoro.Durations, autoStart bool) Model {
	t.Helper()
	m := NewModel(Options{
		Backend:         backend,
		ClientID:        "client-a",
		Durations:       d,
		AutoStartBreaks: autoStart,
		Now:             func() time.Time { return testNow },
	})
	// Nothing is stored yet, so restoring marks the model ready to persist.
	return send(t, m, m.restoreCmd()())
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		switch k {
		case "space":
			m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
		case "enter":
			m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		case "esc":
			m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		default:
			m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
	return m
}

func typeCommand(t *testing.T, m Model, input string) Model {
	t.Helper()
	m = press(t, m, "/")
	for _, r := range input {
		if r == ' ' {
			m = press(t, m, "space")
			continue
		}
		m = press(t, m, string(r))
	}
	return press(t, m, "enter")
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(Options{})
	if m.CurrentView != ViewFocus {
		t.Fatalf("expected default view %q, got %q", ViewFocus, m.CurrentView)
	}
	if m.Keys.Quit != "q" || m.Keys.Stats != "3" {
		t.Fatalf("unexpected keys: %+v", m.Keys)
	}
	if m.Timer.TimeLeft() != pomodoro.DefaultFocusSeconds || m.Timer.Mode() != pomodoro.ModeFocus {
		t.Fatalf("expected default focus timer, got %+v", m.Timer.State())
	}
	if m.Restored() {
		t.Fatal("model must not be restored before the server answers")
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.DefaultDurations(), false)
	m = press(t, m, "1")
	if m.CurrentView != ViewTasks {
		t.Fatalf("expected tasks view, got %q", m.CurrentView)
	}
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	m = updated.(Model)
	if m.CurrentView != ViewStats || cmd == nil {
		t.Fatalf("expected stats view with a load command, got %q cmd=%v", m.CurrentView, cmd)
	}
	m = send(t, m, SwitchViewMsg{View: View("Unknown")})
	if m.CurrentView != ViewStats {
		t.Fatalf("expected view unchanged for unknown view, got %q", m.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := NewModel(Options{})
	m = send(t, m, SetStatusMsg{Text: "ready"})
	if m.Status.Text != "ready" || m.Status.IsError {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	m = send(t, m, AppErrorMsg{Err: errors.New("boom")})
	if !m.Status.IsError || m.LastError == nil {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
	m = send(t, m, ClearStatusMsg{})
	if m.Status.Text != "" {
		t.Fatalf("expected cleared status, got %+v", m.Status)
	}
}

func TestSpaceStartsPausesAndResumes(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, pomodoro.Durations{Focus: 60, ShortBreak: 5, LongBreak: 15}, false)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = updated.(Model)
	if !m.Timer.Ticking() || cmd == nil {
		t.Fatalf("expected ticking timer and tick command, state=%+v", m.Timer.State())
	}
	gen := m.Timer.Generation()
	m = send(t, m, TimerTickMsg{Generation: gen})
	if m.Timer.TimeLeft() != 59 {
		t.Fatalf("expected 59s left, got %d", m.Timer.TimeLeft())
	}

	m = press(t, m, "space")
	if !m.Timer.Paused() {
		t.Fatal("expected paused timer")
	}
	m = send(t, m, TimerTickMsg{Generation: gen})
	if m.Timer.TimeLeft() != 59 {
		t.Fatalf("tick while paused changed time: %d", m.Timer.TimeLeft())
	}

	m = press(t, m, "space")
	if !m.Timer.Ticking() || m.Timer.TimeLeft() != 59 || m.Status.Text != "timer resumed" {
		t.Fatalf("expected resume from 59s, state=%+v status=%q", m.Timer.State(), m.Status.Text)
	}
	m = send(t, m, TimerTickMsg{Generation: gen})
	if m.Timer.TimeLeft() != 59 {
		t.Fatal("tick from the pre-pause generation must be ignored")
	}
}

func TestResetKeyRestoresDuration(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.Durations{Focus: 60, ShortBreak: 5, LongBreak: 15}, false)
	m = press(t, m, "space")
	m = send(t, m, TimerTickMsg{Generation: m.Timer.Generation()})
	m = press(t, m, "r")
	if m.Timer.Running() || m.Timer.TimeLeft() != 60 {
		t.Fatalf("expected stopped timer with full duration, state=%+v", m.Timer.State())
	}
}

func TestCompletionRecordsFocusAndAutoStartsBreak(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, pomodoro.Durations{Focus: 2, ShortBreak: 1, LongBreak: 3}, true)
	m = press(t, m, "space")
	gen := m.Timer.Generation()
	m = send(t, m, TimerTickMsg{Generation: gen})
	updated, cmd := m.Update(TimerTickMsg{Generation: gen})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected completion commands")
	}
	if m.Timer.Mode() != pomodoro.ModeShortBreak || m.Timer.Running() {
		t.Fatalf("expected stopped short break, state=%+v", m.Timer.State())
	}
	if !strings.Contains(m.Status.Text, "focus complete") {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}

	recorded := m.focusCompletedCmd(2)().(FocusRecordedMsg)
	if recorded.Err != nil || len(backend.completed) != 1 || backend.completed[0] != 2 {
		t.Fatalf("expected focus seconds posted, got %+v %v", recorded, backend.completed)
	}

	stale := AutoStartMsg{Generation: m.Timer.Generation() - 1}
	if next := send(t, m, stale); next.Timer.Running() {
		t.Fatal("stale auto-start must be ignored")
	}
	m = send(t, m, AutoStartMsg{Generation: m.Timer.Generation()})
	if !m.Timer.Ticking() || m.Timer.Mode() != pomodoro.ModeShortBreak {
		t.Fatalf("expected auto-started break, state=%+v", m.Timer.State())
	}
}

func TestAutoStartCancelledByUserAction(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.Durations{Focus: 1, ShortBreak: 1, LongBreak: 3}, true)
	m = press(t, m, "space")
	m = send(t, m, TimerTickMsg{Generation: m.Timer.Generation()})
	pending := AutoStartMsg{Generation: m.Timer.Generation()}
	m = press(t, m, "r")
	m = send(t, m, pending)
	if m.Timer.Running() {
		t.Fatal("auto-start must not fire after a reset")
	}
}

func TestModeSwitchNeedsConfirmationWhileRunning(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.Durations{Focus: 60, ShortBreak: 5, LongBreak: 15}, false)
	m = press(t, m, "s")
	if m.Timer.Mode() != pomodoro.ModeShortBreak || m.Timer.TimeLeft() != 5 {
		t.Fatalf("expected immediate switch when stopped, state=%+v", m.Timer.State())
	}
	m = press(t, m, "f", "space", "l")
	if m.PendingMode != pomodoro.ModeLongBreak || !m.Timer.Running() {
		t.Fatalf("expected pending confirmation, pending=%q state=%+v", m.PendingMode, m.Timer.State())
	}
	if !strings.Contains(m.View(), "press y") {
		t.Fatal("expected confirmation prompt in view")
	}
	m = press(t, m, "n")
	if m.PendingMode != "" || m.Timer.Mode() != pomodoro.ModeFocus || !m.Timer.Running() {
		t.Fatalf("expected cancelled switch, state=%+v", m.Timer.State())
	}

	m = press(t, m, "l", "y")
	if m.Timer.Step() != 4 || m.Timer.Running() || m.Timer.TimeLeft() != 15 {
		t.Fatalf("expected forced long break, state=%+v", m.Timer.State())
	}
}

func TestAutoStartKeyToggles(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.DefaultDurations(), false)
	m = press(t, m, "a")
	if !m.Timer.State().AutoStartBreaks {
		t.Fatal("expected auto-start on")
	}
	m = press(t, m, "a")
	if m.Timer.State().AutoStartBreaks {
		t.Fatal("expected auto-start off")
	}
}

func TestRestoreReconcilesRunningTimer(t *testing.T) {
	backend := newFakeBackend()
	saved := pomodoro.DefaultState(pomodoro.DefaultDurations())
	saved.IsRunning = true
	saved.TimeLeft = 100
	saved.UpdatedAt = testNow.Add(-10 * time.Second).Unix()
	backend.saved["client-a"] = saved

	m := NewModel(Options{Backend: backend, ClientID: "client-a", Now: func() time.Time { return testNow }})
	if cmd := m.persist(); cmd != nil {
		t.Fatal("persist must wait for restore")
	}
	msg := m.restoreCmd()()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if !m.Restored() || !m.Timer.Ticking() || m.Timer.TimeLeft() != 90 || cmd == nil {
		t.Fatalf("expected running timer with 90s left, state=%+v", m.Timer.State())
	}
}

func TestRestoreFailureKeepsStoredStateAndRetries(t *testing.T) {
	backend := newFakeBackend()
	stored := pomodoro.DefaultState(pomodoro.Durations{Focus: 3000, ShortBreak: 300, LongBreak: 900})
	stored.CycleStep = 2
	stored.TimeLeft = 700
	backend.saved["client-a"] = stored

	m := NewModel(Options{Backend: backend, ClientID: "client-a", Now: func() time.Time { return testNow }})
	m = send(t, m, RestoredMsg{Err: errors.New("context deadline exceeded")})
	if m.Restored() || !m.Status.IsError {
		t.Fatalf("failed lookup must not count as restored, status=%+v", m.Status)
	}

	m = press(t, m, "s", "r", "a")
	if cmd := m.persist(); cmd != nil {
		t.Fatal("persist must stay disabled after a failed restore")
	}
	if got := backend.saved["client-a"]; got != stored {
		t.Fatalf("stored state overwritten: %+v", got)
	}

	updated, cmd := m.Update(PolledMsg{})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected a restore retry once the server answers")
	}
	msg, ok := cmd().(RestoredMsg)
	if !ok || !msg.Found {
		t.Fatalf("expected found restore result, got %#v", msg)
	}
	if _, again := m.Update(PolledMsg{}); again != nil {
		t.Fatal("a retry is already in flight")
	}

	m = send(t, m, msg)
	if !m.Restored() || m.Timer.Step() != 2 || m.Timer.TimeLeft() != 700 || m.Timer.State().FocusDuration != 3000 {
		t.Fatalf("expected stored timer adopted, state=%+v", m.Timer.State())
	}
	if _, cmd := m.Update(PolledMsg{}); cmd != nil {
		t.Fatal("no retry after a successful restore")
	}
}

func TestPersistWritesSnapshot(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, pomodoro.DefaultDurations(), false)
	m = press(t, m, "l")
	res := m.persist()().(PersistedMsg)
	if res.Err != nil {
		t.Fatalf("persist: %v", res.Err)
	}
	got := backend.saved["client-a"]
	if got.CycleStep != 4 || got.UpdatedAt != testNow.Unix() {
		t.Fatalf("unexpected saved state: %+v", got)
	}
}

func TestPollEvaluatesWarningForSelectedTask(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.DefaultDurations(), false)
	tasks := []model.Task{
		{ID: "t1", Title: "Write report", State: model.TaskStateOpen, AllowedAppIDs: []string{"code"}},
		{ID: "t2", Title: "Inbox zero", State: model.TaskStateOpen},
	}
	m = send(t, m, PolledMsg{Focus: &model.CurrentFocus{AppID: "slack", Title: "chat"}, Tasks: tasks})
	if m.Warning.Warning || !m.Connected {
		t.Fatalf("no task selected must not warn: %+v", m.Warning)
	}

	m = press(t, m, "1", "enter")
	if m.SelectedTaskID != "t1" || !m.Warning.Warning {
		t.Fatalf("expected warning for t1, selected=%q warning=%+v", m.SelectedTaskID, m.Warning)
	}
	if !strings.Contains(m.View(), "off task") {
		t.Fatal("expected warning banner in view")
	}

	m = send(t, m, PolledMsg{Focus: &model.CurrentFocus{AppID: "Code", Title: "main.go"}, Tasks: tasks})
	if m.Warning.Warning {
		t.Fatalf("allowed app must clear warning: %+v", m.Warning)
	}

	m = press(t, m, "j", "enter")
	if m.SelectedTaskID != "t2" {
		t.Fatalf("expected t2 selected, got %q", m.SelectedTaskID)
	}
	m = send(t, m, PolledMsg{Tasks: tasks[:1]})
	if m.SelectedTaskID != "" || m.TaskCursor != 0 {
		t.Fatalf("deleted task must be deselected, selected=%q cursor=%d", m.SelectedTaskID, m.TaskCursor)
	}
}

func TestPollFailureMarksOffline(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.DefaultDurations(), false)
	m = send(t, m, PolledMsg{FocusErr: errors.New("connection refused")})
	if m.Connected || !m.Status.IsError {
		t.Fatalf("expected offline error status, got %+v", m.Status)
	}
	m = send(t, m, PolledMsg{})
	if !m.Connected || m.Status.Text != "reconnected" {
		t.Fatalf("expected reconnect, got %+v", m.Status)
	}
}

func TestPaletteCommands(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, pomodoro.DefaultDurations(), false)
	m = send(t, m, PolledMsg{Tasks: []model.Task{{ID: "t1", Title: "Write report", State: model.TaskStateOpen}}})

	m = typeCommand(t, m, "task write")
	if m.SelectedTaskID != "t1" || m.Palette.Active {
		t.Fatalf("expected t1 selected and palette closed, got %q", m.SelectedTaskID)
	}

	m = typeCommand(t, m, "duration focus 50")
	if m.Timer.TimeLeft() != 50*60 {
		t.Fatalf("expected 50 minute focus, got %d", m.Timer.TimeLeft())
	}

	m = typeCommand(t, m, "start")
	if !m.Timer.Ticking() {
		t.Fatal("expected start command to run the timer")
	}
	m = typeCommand(t, m, "mode long")
	if m.PendingMode != pomodoro.ModeLongBreak {
		t.Fatalf("expected confirmation for running timer, got %q", m.PendingMode)
	}
	m = press(t, m, "n")
	m = typeCommand(t, m, "mode long force")
	if m.Timer.Step() != 4 || m.Timer.Running() {
		t.Fatalf("expected forced switch, state=%+v", m.Timer.State())
	}

	m = typeCommand(t, m, "autostart on")
	if !m.Timer.State().AutoStartBreaks {
		t.Fatal("expected autostart on")
	}

	m = typeCommand(t, m, "bogus")
	if !m.Status.IsError {
		t.Fatalf("expected error for unknown command, got %+v", m.Status)
	}
	m = typeCommand(t, m, "task nothing-matches")
	if !m.Status.IsError || m.SelectedTaskID != "t1" {
		t.Fatalf("expected unmatched task error, got %+v", m.Status)
	}
}

func TestPaletteAddCreatesTask(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, pomodoro.DefaultDurations(), false)
	m = press(t, m, "/")
	for _, k := range []string{"a", "d", "d", "space", "R", "e", "a", "d"} {
		m = press(t, m, k)
	}
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected create command")
	}
	m = send(t, m, cmd())
	if len(m.Tasks) != 1 || m.Tasks[0].Title != "Read" {
		t.Fatalf("expected created task, got %+v", m.Tasks)
	}
}

func TestPaletteEscCloses(t *testing.T) {
	m := NewModel(Options{})
	m = press(t, m, "/", "x", "esc")
	if m.Palette.Active || m.Palette.Input != "" {
		t.Fatalf("expected closed palette, got %+v", m.Palette)
	}
}

func TestStatsLoadAndRender(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.DefaultDurations(), false)
	m = press(t, m, "3")
	m = send(t, m, m.loadStatsCmd()())
	if !m.StatsLoaded || len(m.Daily) != 2 || m.Usage.TotalSeconds != 600 {
		t.Fatalf("unexpected stats: daily=%+v usage=%+v", m.Daily, m.Usage)
	}
	view := m.View()
	if !strings.Contains(view, "app usage") || !strings.Contains(view, "code") {
		t.Fatalf("expected usage legend in view:\n%s", view)
	}

	m = send(t, m, FocusRecordedMsg{Point: stats.DayPoint{Day: "2026-10-16", FocusSeconds: 3000, Sessions: 2}})
	if m.Daily[1].FocusSeconds != 3000 {
		t.Fatalf("expected today's bar updated, got %+v", m.Daily[1])
	}
}

func TestConfigReloadRetargetsStoppedTimer(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.DefaultDurations(), false)
	m = send(t, m, ConfigReloadedMsg{Durations: pomodoro.Durations{Focus: 40 * 60, ShortBreak: 300, LongBreak: 900}, AutoStartBreaks: true})
	if m.Timer.TimeLeft() != 40*60 || !m.Timer.State().AutoStartBreaks {
		t.Fatalf("expected reloaded settings, state=%+v", m.Timer.State())
	}
}

func TestConfigReloadKeepsDashboardOverrides(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), pomodoro.DefaultDurations(), false)
	m, _ = m.setDuration(pomodoro.ModeFocus, 50)
	m = press(t, m, "a")

	unchanged := ConfigReloadedMsg{Durations: pomodoro.DefaultDurations(), AutoStartBreaks: false}
	updated, cmd := m.Update(unchanged)
	m = updated.(Model)
	if cmd != nil {
		t.Fatal("an edit that leaves the pomodoro keys alone must not persist")
	}
	if got := m.Timer.State(); got.FocusDuration != 3000 || !got.AutoStartBreaks {
		t.Fatalf("dashboard overrides lost: %+v", got)
	}

	shortOnly := unchanged
	shortOnly.Durations.ShortBreak = 600
	m = send(t, m, shortOnly)
	got := m.Timer.State()
	if got.ShortBreakDuration != 600 {
		t.Fatalf("expected short break reloaded, got %+v", got)
	}
	if got.FocusDuration != 3000 || !got.AutoStartBreaks {
		t.Fatalf("unchanged keys must keep dashboard values, got %+v", got)
	}
}

func TestHelpToggleAndQuit(t *testing.T) {
	m := NewModel(Options{})
	m = press(t, m, "?")
	if !m.HelpVisible || !strings.Contains(m.View(), "help (focus)") {
		t.Fatal("expected help panel")
	}
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next := updated.(Model)
	if !next.Quitting || cmd == nil {
		t.Fatal("expected quit")
	}
}
