package update

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusd/internal/pomodoro"
)

var modeKeys = map[string]pomodoro.Mode{
	"f": pomodoro.ModeFocus,
	"s": pomodoro.ModeShortBreak,
	"l": pomodoro.ModeLongBreak,
}

func (m Model) handleFocusKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keyStr := msg.String()
	if m.PendingMode != "" {
		mode := m.PendingMode
		m.PendingMode = ""
		if keyStr == "y" {
			return m.switchMode(mode, true)
		}
		m.Status = StatusBar{Text: "mode switch cancelled"}
		return m, nil
	}

	switch keyStr {
	case " ", "space":
		return m.toggleTimer()
	case "r":
		return m.resetTimer()
	case "a":
		return m.setAutoStart(!m.Timer.State().AutoStartBreaks)
	}
	if mode, ok := modeKeys[keyStr]; ok {
		return m.switchMode(mode, false)
	}
	return m, nil
}

func (m Model) toggleTimer() (Model, tea.Cmd) {
	wasPaused := m.Timer.Paused()
	gen, ticking := m.Timer.Toggle()
	switch {
	case !ticking:
		m.Status = StatusBar{Text: "timer paused"}
		persistCmd := m.persist()
		return m, persistCmd
	case wasPaused:
		m.Status = StatusBar{Text: "timer resumed"}
	default:
		m.Status = StatusBar{Text: fmt.Sprintf("%s started", modeLabel(m.Timer.Mode()))}
	}
	persistCmd := m.persist()
	return m, tea.Batch(timerTickCmd(gen), persistCmd)
}

func (m Model) startTimer() (Model, tea.Cmd) {
	if m.Timer.Ticking() {
		return m, nil
	}
	return m.toggleTimer()
}

func (m Model) pauseTimer() (Model, tea.Cmd) {
	if !m.Timer.Pause() {
		m.Status = StatusBar{Text: "timer is not running"}
		return m, nil
	}
	m.Status = StatusBar{Text: "timer paused"}
	persistCmd := m.persist()
	return m, persistCmd
}

func (m Model) resetTimer() (Model, tea.Cmd) {
	m.Timer.Reset()
	m.PendingMode = ""
	m.Status = StatusBar{Text: fmt.Sprintf("%s reset", modeLabel(m.Timer.Mode()))}
	persistCmd := m.persist()
	return m, persistCmd
}

// switchMode changes the timer mode. Without force, a running timer asks for
// confirmation first.
func (m Model) switchMode(mode pomodoro.Mode, force bool) (Model, tea.Cmd) {
	err := m.Timer.SwitchMode(mode, force)
	if errors.Is(err, pomodoro.ErrRunning) {
		m.PendingMode = mode
		m.Status = StatusBar{Text: fmt.Sprintf("timer is running: press y to switch to %s", modeLabel(mode))}
		return m, nil
	}
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: fmt.Sprintf("switched to %s", modeLabel(mode))}
	persistCmd := m.persist()
	return m, persistCmd
}

func (m Model) setAutoStart(on bool) (Model, tea.Cmd) {
	m.Timer.SetAutoStartBreaks(on)
	state := "off"
	if on {
		state = "on"
	}
	m.Status = StatusBar{Text: "auto-start breaks " + state}
	persistCmd := m.persist()
	return m, persistCmd
}

func (m Model) setDuration(mode pomodoro.Mode, minutes int) (Model, tea.Cmd) {
	d := m.Timer.State().Durations()
	switch mode {
	case pomodoro.ModeShortBreak:
		d.ShortBreak = minutes * 60
	case pomodoro.ModeLongBreak:
		d.LongBreak = minutes * 60
	default:
		d.Focus = minutes * 60
	}
	m.Timer.SetDurations(d)
	m.Status = StatusBar{Text: fmt.Sprintf("%s set to %d min", modeLabel(mode), minutes)}
	persistCmd := m.persist()
	return m, persistCmd
}

func (m Model) onTimerTick(msg TimerTickMsg) (Model, tea.Cmd) {
	res := m.Timer.Tick(msg.Generation)
	if !res.Accepted {
		return m, nil
	}
	if res.Completion == nil {
		cmds := []tea.Cmd{timerTickCmd(msg.Generation)}
		if m.now().Sub(m.lastPersist) >= persistEvery {
			cmds = append(cmds, m.persist())
		}
		return m, tea.Batch(cmds...)
	}
	return m.onCompletion(*res.Completion)
}

func (m Model) onCompletion(c pomodoro.Completion) (Model, tea.Cmd) {
	next := pomodoro.ModeForStep(c.ToStep)
	m.Status = StatusBar{Text: fmt.Sprintf("%s complete, %s next", modeLabel(c.Mode), modeLabel(next))}
	m.logger.Info("pomodoro step completed", "mode", c.Mode, "from_step", c.FromStep, "to_step", c.ToStep)

	cmds := []tea.Cmd{m.persist()}
	if c.FocusSeconds > 0 {
		cmds = append(cmds, m.focusCompletedCmd(c.FocusSeconds))
	}
	if c.AutoStart {
		cmds = append(cmds, autoStartCmd(m.Timer.Generation()))
	}
	return m, tea.Batch(cmds...)
}

// onAutoStart starts the break queued by a completion, unless the user has
// touched the timer since.
func (m Model) onAutoStart(msg AutoStartMsg) (Model, tea.Cmd) {
	if msg.Generation != m.Timer.Generation() || m.Timer.Running() {
		return m, nil
	}
	return m.toggleTimer()
}

// onRestored adopts the stored timer. Until a lookup has succeeded nothing
// is persisted, so a failed load cannot overwrite the stored record; the
// next successful poll retries it.
func (m Model) onRestored(msg RestoredMsg) (Model, tea.Cmd) {
	m.restoring = false
	if msg.Err != nil {
		m.logger.Warn("restore pomodoro state failed", "error", msg.Err)
		m.Status = StatusBar{Text: "could not load timer state: " + msg.Err.Error(), IsError: true}
		return m, nil
	}
	m.restored = true
	if !msg.Found {
		persistCmd := m.persist()
		return m, persistCmd
	}
	gen, ticking := m.Timer.Restore(msg.State, m.now())
	m.lastPersist = m.now()
	if ticking {
		m.Status = StatusBar{Text: fmt.Sprintf("%s resumed, %s left", modeLabel(m.Timer.Mode()), formatDuration(m.Timer.TimeLeft()))}
		return m, timerTickCmd(gen)
	}
	return m, nil
}

// retryRestore reissues the state lookup after an earlier one failed.
func (m Model) retryRestore() (Model, tea.Cmd) {
	if m.restored || m.restoring || m.backend == nil {
		return m, nil
	}
	m.restoring = true
	return m, m.restoreCmd()
}

// onConfigReloaded applies only the pomodoro settings a config edit changed,
// so values set from the dashboard survive edits to unrelated keys.
func (m Model) onConfigReloaded(msg ConfigReloadedMsg) (Model, tea.Cmd) {
	prev := m.configured
	m.configured = msg

	d := m.Timer.State().Durations()
	durationsChanged := false
	if msg.Durations.Focus != prev.Durations.Focus {
		d.Focus = msg.Durations.Focus
		durationsChanged = true
	}
	if msg.Durations.ShortBreak != prev.Durations.ShortBreak {
		d.ShortBreak = msg.Durations.ShortBreak
		durationsChanged = true
	}
	if msg.Durations.LongBreak != prev.Durations.LongBreak {
		d.LongBreak = msg.Durations.LongBreak
		durationsChanged = true
	}
	autoChanged := msg.AutoStartBreaks != prev.AutoStartBreaks
	if !durationsChanged && !autoChanged {
		return m, nil
	}

	if durationsChanged {
		m.Timer.SetDurations(d)
	}
	if autoChanged {
		m.Timer.SetAutoStartBreaks(msg.AutoStartBreaks)
	}
	m.Status = StatusBar{Text: "config reloaded"}
	persistCmd := m.persist()
	return m, persistCmd
}

func modeLabel(mode pomodoro.Mode) string {
	switch mode {
	case pomodoro.ModeShortBreak:
		return "short break"
	case pomodoro.ModeLongBreak:
		return "long break"
	default:
		return "focus"
	}
}
