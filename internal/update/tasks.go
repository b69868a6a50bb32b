package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusd/internal/model"
)

func (m Model) handleTasksKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "j", "down":
		if m.TaskCursor < len(m.Tasks)-1 {
			m.TaskCursor++
		}
	case "k", "up":
		if m.TaskCursor > 0 {
			m.TaskCursor--
		}
	case "enter":
		if m.TaskCursor < len(m.Tasks) {
			m = m.selectTask(m.Tasks[m.TaskCursor].ID)
		}
	case "c":
		m = m.selectTask("")
	}
	return m
}

func (m Model) selectTask(id string) Model {
	m.SelectedTaskID = id
	m.evaluate()
	if id == "" {
		m.Status = StatusBar{Text: "task cleared"}
		return m
	}
	if t := m.selectedTask(); t != nil {
		m.Status = StatusBar{Text: fmt.Sprintf("working on %q", t.Title)}
	}
	return m
}

// findTask resolves a palette query: exact id, then case-insensitive title,
// then a unique title substring.
func (m Model) findTask(query string) (model.Task, error) {
	q := strings.TrimSpace(query)
	for _, t := range m.Tasks {
		if t.ID == q {
			return t, nil
		}
	}
	for _, t := range m.Tasks {
		if strings.EqualFold(t.Title, q) {
			return t, nil
		}
	}
	var matches []model.Task
	lower := strings.ToLower(q)
	for _, t := range m.Tasks {
		if strings.Contains(strings.ToLower(t.Title), lower) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("no task matches %q", q)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("%d tasks match %q", len(matches), q)
	}
}

func (m Model) onPolled(msg PolledMsg) (Model, tea.Cmd) {
	err := msg.FocusErr
	if err == nil {
		err = msg.TasksErr
	}
	if err != nil {
		if m.Connected || m.LastError == nil {
			m.logger.Warn("poll failed", "error", err)
		}
		m.Connected = false
		m.LastError = err
		m.Status = StatusBar{Text: "server unreachable: " + err.Error(), IsError: true}
		return m, nil
	}
	if !m.Connected && m.LastError != nil {
		m.Status = StatusBar{Text: "reconnected"}
	}
	m.Connected = true
	m.LastError = nil
	m.Focus = msg.Focus
	m.Tasks = msg.Tasks
	if m.TaskCursor >= len(m.Tasks) {
		m.TaskCursor = max(len(m.Tasks)-1, 0)
	}
	// A selected task deleted on the server is dropped.
	if m.SelectedTaskID != "" && m.selectedTask() == nil {
		m.SelectedTaskID = ""
	}
	m.evaluate()
	return m.retryRestore()
}

func (m Model) onTaskCreated(msg TaskCreatedMsg) Model {
	if msg.Err != nil {
		m.Status = StatusBar{Text: "add task: " + msg.Err.Error(), IsError: true}
		return m
	}
	m.Tasks = append([]model.Task{msg.Task}, m.Tasks...)
	m.TaskCursor = 0
	m.Status = StatusBar{Text: fmt.Sprintf("added task: %s", msg.Task.Title)}
	return m
}
