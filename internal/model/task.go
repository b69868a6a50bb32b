package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidState = errors.New("model: invalid task state")
	ErrInvalidTitle = errors.New("model: task title is required")
)

type TaskState string

const (
	TaskStateOpen   TaskState = "Open"
	TaskStateActive TaskState = "Active"
	TaskStateDone   TaskState = "Done"
)

func (s TaskState) IsValid() bool {
	switch s {
	case TaskStateOpen, TaskStateActive, TaskStateDone:
		return true
	default:
		return false
	}
}

// Task is a unit of work. Empty allow-lists leave that dimension unconstrained.
type Task struct {
	ID            string     `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	Description   string     `json:"description,omitempty" yaml:"description"`
	State         TaskState  `json:"state" yaml:"state"`
	AllowedAppIDs []string   `json:"allowed_app_ids" yaml:"allowed_app_ids"`
	AllowedTitles []string   `json:"allowed_titles" yaml:"allowed_titles"`
	CreatedAt     time.Time  `json:"created_at" yaml:"-"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" yaml:"-"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrInvalidTitle
	}
	if !t.State.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, t.State)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.State == TaskStateDone && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when task state is Done")
	}
	if t.State != TaskStateDone && t.CompletedAt != nil {
		return errors.New("model: completed_at must be nil when task state is not Done")
	}
	return nil
}

// Normalized returns a copy with trimmed fields and cleaned allow-lists.
func (t Task) Normalized() Task {
	t.ID = strings.TrimSpace(t.ID)
	t.Title = strings.TrimSpace(t.Title)
	t.AllowedAppIDs = CleanList(t.AllowedAppIDs)
	t.AllowedTitles = CleanList(t.AllowedTitles)
	if t.State == "" {
		t.State = TaskStateOpen
	}
	return t
}

// CleanList trims entries and drops empty ones, keeping the original case.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
