package model

import (
	"fmt"
	"strings"
	"time"
)

// CurrentFocus is the active application/window as reported by the browser
// extension. A nil *CurrentFocus means no window is focused.
type CurrentFocus struct {
	AppID      string    `json:"app_id"`
	Title      string    `json:"title"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
}

func (f CurrentFocus) IsEmpty() bool {
	return strings.TrimSpace(f.AppID) == "" && strings.TrimSpace(f.Title) == ""
}

func (f CurrentFocus) SameWindow(other CurrentFocus) bool {
	return strings.EqualFold(strings.TrimSpace(f.AppID), strings.TrimSpace(other.AppID)) &&
		strings.TrimSpace(f.Title) == strings.TrimSpace(other.Title)
}

// FocusWarning is emitted to the dashboard whenever the evaluator runs.
type FocusWarning struct {
	Warning bool   `json:"warning"`
	Label   string `json:"label"`
}

// IsFocusAllowed reports whether current counts as "on task" for task.
// With no focus or no task there is nothing to check against, so it is allowed.
func IsFocusAllowed(current *CurrentFocus, task *Task) bool {
	if current == nil || task == nil {
		return true
	}
	apps := lowerList(task.AllowedAppIDs)
	titles := lowerList(task.AllowedTitles)
	if len(apps) == 0 && len(titles) == 0 {
		return true
	}

	appID := strings.ToLower(strings.TrimSpace(current.AppID))
	title := strings.ToLower(strings.TrimSpace(current.Title))

	appMatch := false
	for _, allowed := range apps {
		if appID == allowed {
			appMatch = true
			break
		}
	}
	titleMatch := false
	for _, allowed := range titles {
		if strings.Contains(title, allowed) {
			titleMatch = true
			break
		}
	}

	switch {
	case len(apps) > 0 && len(titles) > 0:
		return appMatch || titleMatch
	case len(apps) > 0:
		return appMatch
	default:
		return titleMatch
	}
}

// EvaluateFocus wraps IsFocusAllowed into the warning shown by the dashboard.
func EvaluateFocus(current *CurrentFocus, task *Task) FocusWarning {
	if IsFocusAllowed(current, task) {
		return FocusWarning{}
	}
	window := strings.TrimSpace(current.AppID)
	if title := strings.TrimSpace(current.Title); title != "" {
		if window == "" {
			window = title
		} else {
			window = fmt.Sprintf("%s (%s)", window, title)
		}
	}
	return FocusWarning{
		Warning: true,
		Label:   fmt.Sprintf("off task: %s is not allowed for %q", window, strings.TrimSpace(task.Title)),
	}
}

func lowerList(items []string) []string {
	cleaned := CleanList(items)
	for i := range cleaned {
		cleaned[i] = strings.ToLower(cleaned[i])
	}
	return cleaned
}
