package api

import (
	"net/http"
	"strings"

	"github.com/sandeepkv93/focusd/internal/model"
)

// FocusReport is what the extension posts on every tab or window change.
type FocusReport struct {
	AppID string `json:"app_id"`
	Title string `json:"title"`
}

// FocusStatus is the evaluator's verdict for the current focus against a task.
type FocusStatus struct {
	Allowed bool                `json:"allowed"`
	Warning bool                `json:"warning"`
	Label   string              `json:"label"`
	Focus   *model.CurrentFocus `json:"focus,omitempty"`
	TaskID  string              `json:"task_id,omitempty"`
}

func (h *Handler) handleReportFocus(w http.ResponseWriter, r *http.Request) {
	var in FocusReport
	if err := decodeBody(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	cur, err := h.tracker.Report(r.Context(), model.CurrentFocus{AppID: in.AppID, Title: in.Title})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cur == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (h *Handler) handleCurrentFocus(w http.ResponseWriter, r *http.Request) {
	cur, err := h.tracker.Current(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cur == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (h *Handler) handleFocusStatus(w http.ResponseWriter, r *http.Request) {
	cur, err := h.tracker.Current(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var task *model.Task
	taskID := strings.TrimSpace(r.URL.Query().Get("task_id"))
	if taskID != "" {
		item, err := h.repo.GetTask(r.Context(), taskID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		t := taskFromStorage(item)
		task = &t
	}
	verdict := model.EvaluateFocus(cur, task)
	writeJSON(w, http.StatusOK, FocusStatus{
		Allowed: !verdict.Warning,
		Warning: verdict.Warning,
		Label:   verdict.Label,
		Focus:   cur,
		TaskID:  taskID,
	})
}
