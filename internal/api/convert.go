package api

import (
	"time"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/storage"
)

func taskFromStorage(in storage.Task) model.Task {
	return model.Task{
		ID:            in.ID,
		Title:         in.Title,
		Description:   in.Description,
		State:         model.TaskState(in.State),
		AllowedAppIDs: in.AllowedAppIDs,
		AllowedTitles: in.AllowedTitles,
		CreatedAt:     in.CreatedAt,
		CompletedAt:   in.CompletedAt,
	}
}

func taskToStorage(in model.Task) storage.Task {
	return storage.Task{
		ID:            in.ID,
		Title:         in.Title,
		Description:   in.Description,
		State:         string(in.State),
		AllowedAppIDs: in.AllowedAppIDs,
		AllowedTitles: in.AllowedTitles,
		CreatedAt:     in.CreatedAt,
		CompletedAt:   in.CompletedAt,
	}
}

// withCompletion keeps completed_at consistent with the state: Done keeps the
// previous completion time or stamps now, anything else clears it.
func withCompletion(t model.Task, prev *time.Time, now time.Time) model.Task {
	if t.State != model.TaskStateDone {
		t.CompletedAt = nil
		return t
	}
	if prev != nil {
		t.CompletedAt = prev
		return t
	}
	t.CompletedAt = &now
	return t
}
