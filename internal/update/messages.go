package update

import (
	"github.com/sandeepkv93/focusd/internal/api"
	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/pomodoro"
	"github.com/sandeepkv93/focusd/internal/stats"
)

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// TimerTickMsg is one second of countdown for the given timer generation.
type TimerTickMsg struct {
	Generation uint64
}

// AutoStartMsg starts the next break if the generation is still current.
type AutoStartMsg struct {
	Generation uint64
}

type PollTickMsg struct{}

type PolledMsg struct {
	Focus    *model.CurrentFocus
	Tasks    []model.Task
	FocusErr error
	TasksErr error
}

type RestoredMsg struct {
	State pomodoro.State
	Found bool
	Err   error
}

type PersistedMsg struct {
	Err error
}

type FocusRecordedMsg struct {
	Point stats.DayPoint
	Err   error
}

type StatsLoadedMsg struct {
	Daily []stats.DayPoint
	Usage api.UsageReport
	Err   error
}

type TaskCreatedMsg struct {
	Task model.Task
	Err  error
}

// ConfigReloadedMsg carries new timer settings from the config watcher.
type ConfigReloadedMsg struct {
	Durations       pomodoro.Durations
	AutoStartBreaks bool
}
