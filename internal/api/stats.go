package api

import (
	"net/http"
	"time"

	"github.com/sandeepkv93/focusd/internal/stats"
	"github.com/sandeepkv93/focusd/internal/storage"
)

const (
	defaultStatsDays = 7
	maxPieSlices     = 6
)

type FocusCompleted struct {
	FocusSeconds int `json:"focus_seconds"`
}

type UsageReport struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	TotalSeconds int64            `json:"total_seconds"`
	Apps         []stats.AppUsage `json:"apps"`
	Slices       []stats.PieSlice `json:"slices"`
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	AppID     string    `json:"app_id"`
	Title     string    `json:"title"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Seconds   int64     `json:"seconds"`
}

// handleFocusCompleted credits a finished focus step to today's totals.
func (h *Handler) handleFocusCompleted(w http.ResponseWriter, r *http.Request) {
	var in FocusCompleted
	if err := decodeBody(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.FocusSeconds <= 0 || in.FocusSeconds > 24*60*60 {
		h.fail(w, r, badRequest("focus_seconds must be between 1 and 86400"))
		return
	}
	day := stats.DayKey(h.now())
	if err := h.repo.AddFocusSession(r.Context(), day, in.FocusSeconds); err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.repo.ListDailyStats(r.Context(), storage.DailyStatFilter{From: day, To: day})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	point := stats.DayPoint{Day: day}
	if len(rows) == 1 {
		point.FocusSeconds = rows[0].FocusSeconds
		point.Sessions = rows[0].Sessions
	}
	h.logger.Info("focus session recorded", "day", day, "focus_seconds", in.FocusSeconds)
	writeJSON(w, http.StatusOK, point)
}

func (h *Handler) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", defaultStatsDays, 1, 366)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	today := h.now()
	rows, err := h.repo.ListDailyStats(r.Context(), storage.DailyStatFilter{
		From: stats.WindowStart(today, days),
		To:   stats.DayKey(today),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.DailySeries(rows, days, today))
}

// handleUsage defaults to the last 24 hours.
func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	samples, err := h.repo.ListFocusSamples(r.Context(), storage.FocusSampleFilter{From: from, To: to})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apps := stats.Aggregate(samples, from, to)
	slices := stats.PieSlices(apps, maxPieSlices)
	if slices == nil {
		slices = []stats.PieSlice{}
	}
	writeJSON(w, http.StatusOK, UsageReport{
		From:         from,
		To:           to,
		TotalSeconds: stats.Total(apps),
		Apps:         apps,
		Slices:       slices,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 500, 1, 10000)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	samples, err := h.repo.ListFocusSamples(r.Context(), storage.FocusSampleFilter{From: from, To: to, Limit: limit})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]HistoryEntry, 0, len(samples))
	for _, s := range samples {
		out = append(out, HistoryEntry{
			ID:        s.ID,
			AppID:     s.AppID,
			Title:     s.Title,
			StartedAt: s.StartedAt,
			EndedAt:   s.EndedAt,
			Seconds:   int64(s.Duration() / time.Second),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := h.now().UTC()
	to, err := queryTime(r, "to", now)
	if err != nil {
		h.fail(w, r, err)
		return time.Time{}, time.Time{}, false
	}
	from, err := queryTime(r, "from", to.Add(-24*time.Hour))
	if err != nil {
		h.fail(w, r, err)
		return time.Time{}, time.Time{}, false
	}
	if !from.Before(to) {
		h.fail(w, r, badRequest("from must be before to"))
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
