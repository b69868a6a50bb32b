package update

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/pomodoro"
	"github.com/sandeepkv93/focusd/internal/stats"
	"github.com/sandeepkv93/focusd/internal/views"
)

func (m Model) renderHeader() string {
	task := "no task"
	if t := m.selectedTask(); t != nil {
		task = truncate(t.Title, 40)
	}
	server := "connecting"
	switch {
	case m.Connected:
		server = "online"
	case m.LastError != nil:
		server = "offline"
	}
	return fmt.Sprintf("focusd | %s | %s %s | %s | server: %s",
		m.CurrentView, modeLabel(m.Timer.Mode()), formatDuration(m.Timer.TimeLeft()), task, server)
}

func (m Model) renderFocusPanel() string {
	state := "stopped"
	switch {
	case m.Timer.Paused():
		state = "paused"
	case m.Timer.Running():
		state = "running"
	}
	title := ""
	if t := m.selectedTask(); t != nil {
		title = t.Title
	}
	current := ""
	if m.Focus != nil {
		current = joinNonEmpty(" - ", m.Focus.AppID, truncate(m.Focus.Title, 36))
	}
	pending := ""
	if m.PendingMode != "" {
		pending = modeLabel(m.PendingMode)
	}
	progress := m.Timer.Progress()
	return views.RenderFocusPanel(views.FocusPanelData{
		TaskTitle:       title,
		Mode:            modeLabel(m.Timer.Mode()),
		StepLabel:       fmt.Sprintf("step %d/%d", m.Timer.Step()+1, pomodoro.StepCount),
		Timer:           formatDuration(m.Timer.TimeLeft()),
		ProgressView:    m.timerProgress.ViewAs(progress),
		ProgressPct:     int(progress * 100),
		State:           state,
		AutoStartBreaks: m.Timer.State().AutoStartBreaks,
		PendingSwitch:   pending,
		CurrentApp:      current,
	})
}

func (m Model) renderTasksPanel() string {
	rows := make([]views.TaskRow, 0, len(m.Tasks))
	for i, t := range m.Tasks {
		rows = append(rows, views.TaskRow{
			ID:       t.ID,
			Title:    truncate(t.Title, 36),
			State:    string(t.State),
			Allowed:  allowedSummary(t),
			Selected: t.ID == m.SelectedTaskID,
			Cursor:   i == m.TaskCursor,
		})
	}
	empty := ""
	if !m.Connected && m.LastError != nil {
		empty = "server unreachable"
	}
	return views.RenderTasksPanel(views.TasksPanelData{Rows: rows, EmptyReason: empty})
}

func (m Model) renderTaskPreview() string {
	if m.TaskCursor >= len(m.Tasks) {
		return ""
	}
	t := m.Tasks[m.TaskCursor]
	return views.RenderTaskPreview(t.Title, t.ID, m.markdown.Render(t.Description, 46))
}

func allowedSummary(t model.Task) string {
	parts := append(append([]string{}, t.AllowedAppIDs...), t.AllowedTitles...)
	if len(parts) == 0 {
		return ""
	}
	return truncate("allow: "+strings.Join(parts, ", "), 30)
}

func (m Model) renderStatsPanel() string {
	days := make([]views.DayBar, 0, len(m.Daily))
	for _, d := range m.Daily {
		days = append(days, views.DayBar{Day: d.Day, FocusSeconds: d.FocusSeconds, Sessions: d.Sessions})
	}
	slices := make([]views.PieEntry, 0, len(m.Usage.Slices))
	for _, s := range m.Usage.Slices {
		slices = append(slices, views.PieEntry{Label: truncate(s.AppID, 18), Seconds: s.Seconds, Percent: s.Percent, Color: s.Color})
	}
	return views.RenderStatsPanel(views.StatsPanelData{
		Days:         days,
		MaxSeconds:   stats.MaxFocus(m.Daily),
		Slices:       slices,
		TotalSeconds: m.Usage.TotalSeconds,
		Loading:      !m.StatsLoaded,
	})
}

func (m Model) renderStatusLine() string {
	palette := views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
	if palette != "" {
		return palette
	}
	if m.Status.Text == "" {
		return ""
	}
	if m.Status.IsError {
		return "status: error: " + m.Status.Text
	}
	return "status: " + m.Status.Text
}
