package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type FocusPanelData struct {
	TaskTitle       string
	Mode            string
	StepLabel       string
	Timer           string
	ProgressView    string
	ProgressPct     int
	State           string
	AutoStartBreaks bool
	PendingSwitch   string
	CurrentApp      string
}

type TaskRow struct {
	ID       string
	Title    string
	State    string
	Allowed  string
	Selected bool
	Cursor   bool
}

type TasksPanelData struct {
	Rows        []TaskRow
	Preview     string
	EmptyReason string
}

type DayBar struct {
	Day          string
	FocusSeconds int
	Sessions     int
}

type PieEntry struct {
	Label   string
	Seconds int64
	Percent float64
	Color   string
}

type StatsPanelData struct {
	Days         []DayBar
	MaxSeconds   int
	Slices       []PieEntry
	TotalSeconds int64
	Loading      bool
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderFocusPanel(data FocusPanelData) string {
	var b strings.Builder
	b.WriteString(accentStyle.Render("pomodoro") + "\n")
	if data.TaskTitle != "" {
		b.WriteString(fmt.Sprintf("task: %s\n", data.TaskTitle))
	} else {
		b.WriteString(mutedStyle.Render("task: (none selected)") + "\n")
	}
	b.WriteString(fmt.Sprintf("mode: %s  %s\n", strings.ToUpper(data.Mode), mutedStyle.Render(data.StepLabel)))
	b.WriteString(fmt.Sprintf("timer: %s  [%s]\n", data.Timer, data.State))
	b.WriteString(fmt.Sprintf("%s %d%%\n", data.ProgressView, data.ProgressPct))
	auto := "off"
	if data.AutoStartBreaks {
		auto = "on"
	}
	b.WriteString(fmt.Sprintf("auto-start breaks: %s\n", auto))
	if data.CurrentApp != "" {
		b.WriteString(fmt.Sprintf("focused: %s\n", data.CurrentApp))
	}
	b.WriteString(mutedStyle.Render("[space]start/pause [r]reset [f/s/l]mode [a]auto-start") + "\n")
	if data.PendingSwitch != "" {
		b.WriteString(errorStyle.Render(fmt.Sprintf("timer is running: press y to switch to %s", data.PendingSwitch)))
	}
	return strings.TrimSpace(b.String())
}

func RenderTasksPanel(data TasksPanelData) string {
	var b strings.Builder
	b.WriteString(accentStyle.Render("tasks") + "\n")
	if len(data.Rows) == 0 {
		reason := data.EmptyReason
		if reason == "" {
			reason = "no tasks yet: use /add <title>"
		}
		b.WriteString(mutedStyle.Render(reason))
		return b.String()
	}
	for _, row := range data.Rows {
		cursor := "  "
		if row.Cursor {
			cursor = "> "
		}
		mark := " "
		if row.Selected {
			mark = "*"
		}
		line := fmt.Sprintf("%s%s %s [%s]", cursor, mark, row.Title, row.State)
		if row.Allowed != "" {
			line += mutedStyle.Render("  " + row.Allowed)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderTaskPreview(title, id, markdown string) string {
	if id == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(accentStyle.Render(title) + "\n")
	b.WriteString(mutedStyle.Render("id: "+id) + "\n")
	if markdown != "" {
		b.WriteString("\n" + markdown)
	}
	return strings.TrimSpace(b.String())
}

const barWidth = 30

func RenderStatsPanel(data StatsPanelData) string {
	var b strings.Builder
	b.WriteString(accentStyle.Render("focus history") + "\n")
	if data.Loading && len(data.Days) == 0 {
		b.WriteString(mutedStyle.Render("loading...") + "\n")
	}
	for _, d := range data.Days {
		filled := 0
		if data.MaxSeconds > 0 {
			filled = d.FocusSeconds * barWidth / data.MaxSeconds
		}
		bar := strings.Repeat("█", filled) + mutedStyle.Render(strings.Repeat("·", barWidth-filled))
		b.WriteString(fmt.Sprintf("%s %s %3dm %d\n", d.Day[5:], bar, d.FocusSeconds/60, d.Sessions))
	}

	b.WriteString("\n" + accentStyle.Render("app usage") + "\n")
	if len(data.Slices) == 0 {
		b.WriteString(mutedStyle.Render("no usage recorded"))
		return strings.TrimSpace(b.String())
	}
	for _, s := range data.Slices {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■")
		b.WriteString(fmt.Sprintf("%s %-18s %5.1f%% %s\n", swatch, s.Label, s.Percent, formatSeconds(s.Seconds)))
	}
	b.WriteString(mutedStyle.Render("total " + formatSeconds(data.TotalSeconds)))
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s):\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func formatSeconds(total int64) string {
	h := total / 3600
	m := (total % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm%02ds", m, total%60)
}
