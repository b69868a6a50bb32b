package update

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusd/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.restoreCmd(), m.pollCmd(), pollTickCmd(m.pollInterval))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}

		keyStr := typed.String()
		// A pending mode switch swallows the next key.
		if m.PendingMode != "" && m.CurrentView == ViewFocus && keyStr != "ctrl+c" {
			return m.handleFocusKey(typed)
		}

		switch keyStr {
		case "/":
			return m.openPalette(), nil
		case m.Keys.Tasks:
			return m.switchView(ViewTasks)
		case m.Keys.Focus:
			return m.switchView(ViewFocus)
		case m.Keys.Stats:
			return m.switchView(ViewStats)
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			persistCmd := m.persist()
			return m, tea.Sequence(persistCmd, tea.Quit)
		}
		switch m.CurrentView {
		case ViewTasks:
			return m.handleTasksKey(typed), nil
		case ViewFocus:
			return m.handleFocusKey(typed)
		case ViewStats:
			if keyStr == "g" {
				return m, m.loadStatsCmd()
			}
		}
	case SwitchViewMsg:
		return m.switchView(typed.View)
	case TimerTickMsg:
		return m.onTimerTick(typed)
	case AutoStartMsg:
		return m.onAutoStart(typed)
	case PollTickMsg:
		return m, tea.Batch(m.pollCmd(), pollTickCmd(m.pollInterval))
	case PolledMsg:
		return m.onPolled(typed)
	case RestoredMsg:
		return m.onRestored(typed)
	case PersistedMsg:
		if typed.Err != nil {
			m.logger.Warn("persist pomodoro state failed", "error", typed.Err)
			m.Status = StatusBar{Text: "timer state not saved: " + typed.Err.Error(), IsError: true}
		}
		return m, nil
	case FocusRecordedMsg:
		return m.onFocusRecorded(typed), nil
	case StatsLoadedMsg:
		return m.onStatsLoaded(typed), nil
	case TaskCreatedMsg:
		return m.onTaskCreated(typed), nil
	case ConfigReloadedMsg:
		return m.onConfigReloaded(typed)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg { return ClearStatusMsg{} })
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) switchView(v View) (Model, tea.Cmd) {
	switch v {
	case ViewTasks, ViewFocus:
		m.CurrentView = v
		return m, nil
	case ViewStats:
		m.CurrentView = v
		return m, m.loadStatsCmd()
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return "bye\n"
	}

	var left, right string
	switch m.CurrentView {
	case ViewTasks:
		left = m.renderTasksPanel()
		right = m.renderTaskPreview()
	case ViewStats:
		left = m.renderStatsPanel()
	default:
		left = m.renderFocusPanel()
	}
	if help := m.renderHelpIfVisible(); help != "" {
		right = help
	}

	footer := "1 tasks | 2 focus | 3 stats | / command | ? help | q quit"
	return views.RenderApp(views.AppData{
		Header:     m.renderHeader(),
		Warning:    m.Warning.Label,
		LeftPane:   left,
		RightPane:  right,
		StatusLine: m.renderStatusLine(),
		StatusErr:  m.Status.IsError && !m.Palette.Active,
		Footer:     strings.TrimSpace(footer),
	})
}
