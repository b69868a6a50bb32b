package update

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusd/internal/api"
	"github.com/sandeepkv93/focusd/internal/client"
)

func (m Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.requestTimeout)
}

func (m Model) restoreCmd() tea.Cmd {
	if m.backend == nil {
		return func() tea.Msg { return RestoredMsg{} }
	}
	backend, clientID := m.backend, m.clientID
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		s, err := backend.GetPomodoro(ctx, clientID)
		if errors.Is(err, client.ErrNotFound) {
			return RestoredMsg{}
		}
		if err != nil {
			return RestoredMsg{Err: err}
		}
		return RestoredMsg{State: s, Found: true}
	}
}

func (m Model) pollCmd() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		var out PolledMsg
		out.Focus, out.FocusErr = backend.CurrentFocus(ctx)
		out.Tasks, out.TasksErr = backend.ListTasks(ctx, "")
		return out
	}
}

func pollTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return PollTickMsg{} })
}

func timerTickCmd(generation uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return TimerTickMsg{Generation: generation} })
}

func autoStartCmd(generation uint64) tea.Cmd {
	return tea.Tick(autoStartDelay, func(time.Time) tea.Msg { return AutoStartMsg{Generation: generation} })
}

// persist snapshots the timer and saves it in the background. It is a no-op
// until the stored state has been restored.
func (m *Model) persist() tea.Cmd {
	if m.backend == nil || !m.restored {
		return nil
	}
	now := m.now()
	m.lastPersist = now
	snapshot := m.Timer.Snapshot(now)
	backend, clientID := m.backend, m.clientID
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		return PersistedMsg{Err: backend.PutPomodoro(ctx, clientID, snapshot)}
	}
}

func (m Model) focusCompletedCmd(seconds int) tea.Cmd {
	if m.backend == nil || seconds <= 0 {
		return nil
	}
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		point, err := backend.FocusCompleted(ctx, seconds)
		return FocusRecordedMsg{Point: point, Err: err}
	}
}

func (m Model) loadStatsCmd() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	backend := m.backend
	to := m.now()
	from := to.Add(-24 * time.Hour)
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		daily, err := backend.DailyStats(ctx, statsDays)
		if err != nil {
			return StatsLoadedMsg{Err: err}
		}
		usage, err := backend.Usage(ctx, from, to)
		return StatsLoadedMsg{Daily: daily, Usage: usage, Err: err}
	}
}

func (m Model) createTaskCmd(title string) tea.Cmd {
	if m.backend == nil {
		return func() tea.Msg { return TaskCreatedMsg{Err: errors.New("no server configured")} }
	}
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		task, err := backend.CreateTask(ctx, api.TaskInput{Title: title})
		return TaskCreatedMsg{Task: task, Err: err}
	}
}

