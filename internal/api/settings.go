package api

import (
	"net/http"
	"strings"
)

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.ListSettings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// handlePutSettings merges the posted keys into the stored settings.
func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	if err := decodeBody(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			h.fail(w, r, badRequest("setting keys must not be empty"))
			return
		}
		if err := h.repo.PutSetting(r.Context(), key, value); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	h.handleGetSettings(w, r)
}
