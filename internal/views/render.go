package views

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Header     string
	Warning    string
	LeftPane   string
	RightPane  string
	StatusLine string
	StatusErr  bool
	Footer     string
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("9")).Padding(0, 1)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	accentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

func RenderApp(data AppData) string {
	left := panelStyle.Width(58).Render(data.LeftPane)
	row := left
	if strings.TrimSpace(data.RightPane) != "" {
		right := panelStyle.Width(52).Render(data.RightPane)
		row = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	lines := []string{headerStyle.Render(data.Header)}
	if data.Warning != "" {
		lines = append(lines, warningStyle.Render("! "+data.Warning))
	}
	lines = append(lines, row)
	if data.StatusLine != "" {
		if data.StatusErr {
			lines = append(lines, errorStyle.Render(data.StatusLine))
		} else {
			lines = append(lines, statusStyle.Render(data.StatusLine))
		}
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

// MarkdownRenderer renders task descriptions. Glamour renderers are costly
// to build, so one is kept per wrap width, and the last output is reused
// while the same description stays on screen. Safe for concurrent use.
type MarkdownRenderer struct {
	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	lastKey   markdownKey
	lastOut   string
	builds    int
}

type markdownKey struct {
	md    string
	width int
}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{renderers: make(map[int]*glamour.TermRenderer)}
}

// Render falls back to the raw markdown when glamour fails.
func (r *MarkdownRenderer) Render(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width <= 0 {
		width = 48
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := markdownKey{md: md, width: width}
	if r.lastKey == key {
		return r.lastOut
	}
	tr, ok := r.renderers[width]
	if !ok {
		var err error
		tr, err = glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(width))
		if err != nil {
			return md
		}
		r.builds++
		r.renderers[width] = tr
	}
	out, err := tr.Render(md)
	if err != nil {
		return md
	}
	r.lastKey = key
	r.lastOut = strings.TrimSpace(out)
	return r.lastOut
}
