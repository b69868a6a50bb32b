// Package stats turns focus history into the numbers behind the usage pie
// chart and the daily focus bar chart.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/focusd/internal/storage"
)

const OtherAppID = "other"

// Palette is cycled through for pie slices; the "other" slice is always grey.
var Palette = []string{"#7aa2f7", "#9ece6a", "#e0af68", "#f7768e", "#bb9af7", "#7dcfff", "#ff9e64", "#73daca"}

const otherColor = "#565f89"

type AppUsage struct {
	AppID   string `json:"app_id"`
	Seconds int64  `json:"seconds"`
}

type PieSlice struct {
	AppID    string  `json:"app_id"`
	Seconds  int64   `json:"seconds"`
	Percent  float64 `json:"percent"`
	StartDeg float64 `json:"start_deg"`
	EndDeg   float64 `json:"end_deg"`
	Color    string  `json:"color"`
}

// Aggregate clips samples to [from, to) and sums whole seconds per app. App
// ids are compared case-insensitively; the first spelling seen is kept. A
// zero from or to leaves that side open.
func Aggregate(samples []storage.FocusSample, from, to time.Time) []AppUsage {
	totals := make(map[string]time.Duration)
	names := make(map[string]string)
	order := make([]string, 0)
	for _, s := range samples {
		start, end := s.StartedAt, s.EndedAt
		if !from.IsZero() && start.Before(from) {
			start = from
		}
		if !to.IsZero() && end.After(to) {
			end = to
		}
		if !end.After(start) {
			continue
		}
		appID := strings.TrimSpace(s.AppID)
		if appID == "" {
			continue
		}
		key := strings.ToLower(appID)
		if _, ok := names[key]; !ok {
			names[key] = appID
			order = append(order, key)
		}
		totals[key] += end.Sub(start)
	}

	out := make([]AppUsage, 0, len(order))
	for _, key := range order {
		secs := int64(totals[key] / time.Second)
		if secs <= 0 {
			continue
		}
		out = append(out, AppUsage{AppID: names[key], Seconds: secs})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return strings.ToLower(out[i].AppID) < strings.ToLower(out[j].AppID)
	})
	return out
}

func Total(usage []AppUsage) int64 {
	var total int64
	for _, u := range usage {
		total += u.Seconds
	}
	return total
}

// PieSlices lays usage out around a circle. usage must already be sorted as
// Aggregate returns it. When there are more apps than maxSlices, the tail is
// folded into one "other" slice so at most maxSlices are returned. The last
// slice always ends at exactly 360 degrees.
func PieSlices(usage []AppUsage, maxSlices int) []PieSlice {
	total := Total(usage)
	if total <= 0 || len(usage) == 0 {
		return nil
	}
	if maxSlices <= 0 {
		maxSlices = len(usage)
	}

	head := usage
	var other int64
	if len(usage) > maxSlices {
		keep := maxSlices - 1
		head = usage[:keep]
		for _, u := range usage[keep:] {
			other += u.Seconds
		}
	}

	out := make([]PieSlice, 0, len(head)+1)
	cursor := 0.0
	add := func(appID string, secs int64, color string) {
		span := 360 * float64(secs) / float64(total)
		out = append(out, PieSlice{
			AppID:    appID,
			Seconds:  secs,
			Percent:  round2(100 * float64(secs) / float64(total)),
			StartDeg: round2(cursor),
			EndDeg:   round2(cursor + span),
			Color:    color,
		})
		cursor += span
	}
	for i, u := range head {
		add(u.AppID, u.Seconds, Palette[i%len(Palette)])
	}
	if other > 0 {
		add(OtherAppID, other, otherColor)
	}
	out[len(out)-1].EndDeg = 360
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
