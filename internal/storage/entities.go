package storage

import "time"

type Task struct {
	ID            string
	Title         string
	Description   string
	State         string
	AllowedAppIDs []string
	AllowedTitles []string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// CurrentFocus is the single live focus row. StartedAt is when this window
// first became active; ObservedAt is the latest report for it.
type CurrentFocus struct {
	AppID      string
	Title      string
	StartedAt  time.Time
	ObservedAt time.Time
}

type FocusSample struct {
	ID        int64
	AppID     string
	Title     string
	StartedAt time.Time
	EndedAt   time.Time
}

func (s FocusSample) Duration() time.Duration {
	if s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

type PomodoroRecord struct {
	ClientID  string
	StateJSON []byte
	UpdatedAt time.Time
}

// DailyStat accumulates completed focus sessions per local day (YYYY-MM-DD).
type DailyStat struct {
	Day          string
	FocusSeconds int
	Sessions     int
}

type TaskListFilter struct {
	State  string
	Limit  int
	Offset int
}

type FocusSampleFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

type DailyStatFilter struct {
	From string
	To   string
}
