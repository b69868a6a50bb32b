package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusd/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeySpace {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}
		}
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
	return m, nil
}

func (m Model) openPalette() Model {
	m.Palette = CommandPaletteState{Active: true}
	m.commandInput.SetValue("")
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active"}
	return m
}

func (m Model) closePalette() Model {
	m.Palette = CommandPaletteState{}
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var follow tea.Cmd
	apply := func(next Model, c tea.Cmd) (commands.Result, error) {
		m, follow = next, c
		return commands.Result{Message: next.Status.Text}, nil
	}
	res, err := commands.Execute(cmd, commands.Handlers{
		Start: func() (commands.Result, error) { return apply(m.startTimer()) },
		Pause: func() (commands.Result, error) { return apply(m.pauseTimer()) },
		Reset: func() (commands.Result, error) { return apply(m.resetTimer()) },
		Mode: func(a commands.ModeArgs) (commands.Result, error) {
			return apply(m.switchMode(a.Mode, a.Force))
		},
		Task: func(a commands.TaskArgs) (commands.Result, error) {
			if a.Clear {
				m = m.selectTask("")
				return commands.Result{Message: m.Status.Text}, nil
			}
			t, err := m.findTask(a.Query)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			m = m.selectTask(t.ID)
			return commands.Result{Message: m.Status.Text}, nil
		},
		Add: func(a commands.AddArgs) (commands.Result, error) {
			follow = m.createTaskCmd(a.Title)
			return commands.Result{Message: fmt.Sprintf("adding task: %s", a.Title)}, nil
		},
		Duration: func(a commands.DurationArgs) (commands.Result, error) {
			return apply(m.setDuration(a.Mode, a.Minutes))
		},
		Autostart: func(a commands.AutostartArgs) (commands.Result, error) {
			on := a.On
			if a.Toggle {
				on = !m.Timer.State().AutoStartBreaks
			}
			return apply(m.setAutoStart(on))
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message, IsError: m.Status.IsError}
	return m, follow
}
