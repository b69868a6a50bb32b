package api

import (
	"net/http"
	"strings"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/storage"
)

// TaskInput is the body of POST and PUT /api/tasks. Unset allow-lists mean
// "anything goes" for that dimension.
type TaskInput struct {
	ID            string          `json:"id,omitempty"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	State         model.TaskState `json:"state"`
	AllowedAppIDs []string        `json:"allowed_app_ids"`
	AllowedTitles []string        `json:"allowed_titles"`
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	state := model.TaskState(r.URL.Query().Get("state"))
	if state != "" && !state.IsValid() {
		h.fail(w, r, badRequest("unknown state %q", state))
		return
	}
	limit, err := queryInt(r, "limit", 0, 0, 1000)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.repo.ListTasks(r.Context(), storage.TaskListFilter{State: string(state), Limit: limit})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]model.Task, 0, len(items))
	for _, item := range items {
		out = append(out, taskFromStorage(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in TaskInput
	if err := decodeBody(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = h.newID()
	}
	task := model.Task{
		ID:            id,
		Title:         in.Title,
		Description:   in.Description,
		State:         in.State,
		AllowedAppIDs: in.AllowedAppIDs,
		AllowedTitles: in.AllowedTitles,
		CreatedAt:     h.now().UTC(),
	}.Normalized()
	task = withCompletion(task, nil, h.now().UTC())
	if err := task.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.repo.CreateTask(r.Context(), taskToStorage(task)); err != nil {
		if _, getErr := h.repo.GetTask(r.Context(), task.ID); getErr == nil {
			writeError(w, http.StatusConflict, "task already exists")
			return
		}
		h.fail(w, r, err)
		return
	}
	h.logger.Info("task created", "task_id", task.ID)
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	item, err := h.repo.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskFromStorage(item))
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	current, err := h.repo.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in TaskInput
	if err := decodeBody(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	prev := taskFromStorage(current)
	task := model.Task{
		ID:            prev.ID,
		Title:         in.Title,
		Description:   in.Description,
		State:         in.State,
		AllowedAppIDs: in.AllowedAppIDs,
		AllowedTitles: in.AllowedTitles,
		CreatedAt:     prev.CreatedAt,
	}.Normalized()
	task = withCompletion(task, prev.CompletedAt, h.now().UTC())
	if err := task.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.repo.UpdateTask(r.Context(), taskToStorage(task)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
