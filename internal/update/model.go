// Package update is the focusd dashboard: a bubbletea model that drives the
// local Pomodoro timer and mirrors tasks, focus and stats from the server.
package update

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/focusd/internal/api"
	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/pomodoro"
	"github.com/sandeepkv93/focusd/internal/stats"
	"github.com/sandeepkv93/focusd/internal/views"
)

type View string

const (
	ViewTasks View = "Tasks"
	ViewFocus View = "Focus"
	ViewStats View = "Stats"
)

const (
	defaultPollInterval = 2 * time.Second
	persistEvery        = 15 * time.Second
	autoStartDelay      = time.Second
	statsDays           = 7
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Tasks string
	Focus string
	Stats string
	Help  string
	Quit  string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Backend is the slice of the server API the dashboard talks to.
type Backend interface {
	ListTasks(ctx context.Context, state model.TaskState) ([]model.Task, error)
	CreateTask(ctx context.Context, in api.TaskInput) (model.Task, error)
	CurrentFocus(ctx context.Context) (*model.CurrentFocus, error)
	GetPomodoro(ctx context.Context, clientID string) (pomodoro.State, error)
	PutPomodoro(ctx context.Context, clientID string, s pomodoro.State) error
	FocusCompleted(ctx context.Context, focusSeconds int) (stats.DayPoint, error)
	DailyStats(ctx context.Context, days int) ([]stats.DayPoint, error)
	Usage(ctx context.Context, from, to time.Time) (api.UsageReport, error)
}

type Options struct {
	Backend         Backend
	ClientID        string
	Durations       pomodoro.Durations
	AutoStartBreaks bool
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

type Model struct {
	CurrentView    View
	SelectedTaskID string
	Tasks          []model.Task
	TaskCursor     int
	Focus          *model.CurrentFocus
	Warning        model.FocusWarning
	Timer          pomodoro.Machine
	// PendingMode is a mode switch waiting for confirmation while the timer runs.
	PendingMode pomodoro.Mode
	Daily       []stats.DayPoint
	Usage       api.UsageReport
	StatsLoaded bool
	Connected   bool
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	backend        Backend
	clientID       string
	logger         *slog.Logger
	now            func() time.Time
	pollInterval   time.Duration
	requestTimeout time.Duration
	restored       bool
	restoring      bool
	lastPersist    time.Time
	// configured is the last pomodoro config seen from the file; reloads
	// only apply what differs from it.
	configured ConfigReloadedMsg

	markdown      *views.MarkdownRenderer
	commandInput  textinput.Model
	timerProgress progress.Model
	helpModel     help.Model
}

func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}

	commandInput := textinput.New()
	commandInput.Prompt = "/"
	commandInput.Placeholder = "start | mode short | task <title> | duration focus 50"

	timerProgress := progress.New(progress.WithDefaultGradient())
	timerProgress.Width = 32

	return Model{
		CurrentView: ViewFocus,
		Timer:       *pomodoro.New(opts.Durations, opts.AutoStartBreaks),
		Keys: GlobalKeyMap{
			Tasks: "1",
			Focus: "2",
			Stats: "3",
			Help:  "?",
			Quit:  "q",
		},
		backend:        opts.Backend,
		clientID:       opts.ClientID,
		logger:         opts.Logger,
		now:            opts.Now,
		pollInterval:   opts.PollInterval,
		requestTimeout: opts.RequestTimeout,
		restoring:      opts.Backend != nil,
		markdown:       views.NewMarkdownRenderer(),
		commandInput:   commandInput,
		timerProgress:  timerProgress,
		helpModel:      help.New(),
		configured: ConfigReloadedMsg{
			Durations:       opts.Durations.WithFallback(pomodoro.DefaultDurations()),
			AutoStartBreaks: opts.AutoStartBreaks,
		},
	}
}

// Restored reports whether the persisted timer state has been loaded. Until
// then nothing is written back, so a slow server cannot be overwritten with
// defaults.
func (m Model) Restored() bool { return m.restored }

func (m Model) selectedTask() *model.Task {
	if m.SelectedTaskID == "" {
		return nil
	}
	for i := range m.Tasks {
		if m.Tasks[i].ID == m.SelectedTaskID {
			t := m.Tasks[i]
			return &t
		}
	}
	return nil
}

// evaluate recomputes the off-task warning from the latest focus and the
// selected task.
func (m *Model) evaluate() {
	m.Warning = model.EvaluateFocus(m.Focus, m.selectedTask())
}
