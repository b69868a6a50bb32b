package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sandeepkv93/focusd/internal/pomodoro"
	"github.com/sandeepkv93/focusd/internal/storage"
)

func (h *Handler) handleGetPomodoro(w http.ResponseWriter, r *http.Request) {
	rec, err := h.repo.GetPomodoroState(r.Context(), r.PathValue("client_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Records are re-sanitized on the way out; reconciling elapsed time is
	// left to the client, which knows whether it is resuming.
	writeJSON(w, http.StatusOK, pomodoro.DecodeState(rec.StateJSON, pomodoro.DefaultDurations()))
}

func (h *Handler) handlePutPomodoro(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.PathValue("client_id"))
	if clientID == "" {
		h.fail(w, r, badRequest("client id is required"))
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, r, badRequest("read body: %v", err))
		return
	}
	if !json.Valid(raw) {
		h.fail(w, r, badRequest("invalid JSON body"))
		return
	}
	state := pomodoro.DecodeState(raw, pomodoro.DefaultDurations())
	now := h.now().UTC()
	if state.UpdatedAt == 0 {
		state.UpdatedAt = now.Unix()
	}
	encoded, err := json.Marshal(state)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.repo.PutPomodoroState(r.Context(), storage.PomodoroRecord{
		ClientID:  clientID,
		StateJSON: encoded,
		UpdatedAt: time.Unix(state.UpdatedAt, 0).UTC(),
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
