package stats

import (
	"time"

	"github.com/sandeepkv93/focusd/internal/storage"
)

const DayLayout = "2006-01-02"

type DayPoint struct {
	Day          string `json:"day"`
	FocusSeconds int    `json:"focus_seconds"`
	Sessions     int    `json:"sessions"`
}

// DayKey is the local calendar day a completed session is credited to.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// WindowStart is the first day of a days-long window ending at today.
func WindowStart(today time.Time, days int) string {
	if days < 1 {
		days = 1
	}
	return DayKey(today.AddDate(0, 0, -(days - 1)))
}

// DailySeries returns exactly days points, oldest first and ending at today,
// with zeroes for days that have no stats.
func DailySeries(stats []storage.DailyStat, days int, today time.Time) []DayPoint {
	if days < 1 {
		days = 1
	}
	byDay := make(map[string]storage.DailyStat, len(stats))
	for _, s := range stats {
		byDay[s.Day] = s
	}
	out := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := DayKey(today.AddDate(0, 0, -i))
		s := byDay[key]
		out = append(out, DayPoint{Day: key, FocusSeconds: s.FocusSeconds, Sessions: s.Sessions})
	}
	return out
}

// MaxFocus is the tallest bar, used to scale the chart.
func MaxFocus(points []DayPoint) int {
	best := 0
	for _, p := range points {
		if p.FocusSeconds > best {
			best = p.FocusSeconds
		}
	}
	return best
}
