package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateTask(ctx context.Context, in Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	UpdateTask(ctx context.Context, in Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error)

	GetCurrentFocus(ctx context.Context) (CurrentFocus, error)
	TouchCurrentFocus(ctx context.Context, observedAt time.Time) error
	// RotateFocus appends closed to the history (when non-nil) and replaces
	// the current focus with next, clearing it when next is nil.
	RotateFocus(ctx context.Context, closed *FocusSample, next *CurrentFocus) error
	ListFocusSamples(ctx context.Context, filter FocusSampleFilter) ([]FocusSample, error)

	GetPomodoroState(ctx context.Context, clientID string) (PomodoroRecord, error)
	PutPomodoroState(ctx context.Context, in PomodoroRecord) error

	AddFocusSession(ctx context.Context, day string, focusSeconds int) error
	ListDailyStats(ctx context.Context, filter DailyStatFilter) ([]DailyStat, error)

	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) (map[string]string, error)
}
