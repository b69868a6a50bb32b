package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/focusd/internal/commands"
	"github.com/sandeepkv93/focusd/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	if m.Palette.Active {
		for _, kb := range m.paletteBindings() {
			plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
		}
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Tasks, Action: "switch to Tasks"},
		{Key: m.Keys.Focus, Action: "switch to Focus"},
		{Key: m.Keys.Stats, Action: "switch to Stats"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewTasks:
		return []KeyBinding{
			{Key: "j/k", Action: "move cursor"},
			{Key: "enter", Action: "work on task"},
			{Key: "c", Action: "clear selected task"},
		}
	case ViewFocus:
		return []KeyBinding{
			{Key: "space", Action: "start/pause/resume timer"},
			{Key: "r", Action: "reset timer"},
			{Key: "f/s/l", Action: "focus/short/long break"},
			{Key: "a", Action: "toggle auto-start breaks"},
		}
	case ViewStats:
		return []KeyBinding{
			{Key: "g", Action: "refresh stats"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) paletteBindings() []KeyBinding {
	out := make([]KeyBinding, 0, len(commands.Names))
	for _, name := range commands.Names {
		out = append(out, KeyBinding{Key: "/" + string(name), Action: paletteUsage[name]})
	}
	return out
}

var paletteUsage = map[commands.Type]string{
	commands.TypeStart:     "start or resume the timer",
	commands.TypePause:     "pause the timer",
	commands.TypeReset:     "reset the current step",
	commands.TypeMode:      "mode <focus|short|long> [force]",
	commands.TypeTask:      "task <id|title> or task none",
	commands.TypeAdd:       "add <title>",
	commands.TypeDuration:  "duration <mode> <minutes>",
	commands.TypeAutostart: "autostart [on|off|toggle]",
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
