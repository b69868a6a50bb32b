package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "focusd-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func TestTaskCRUDAndList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	task := Task{
		ID:            "task-1",
		Title:         "Write invoice export",
		Description:   "CSV first",
		State:         "Open",
		AllowedAppIDs: []string{"code", "terminal"},
		AllowedTitles: []string{"invoice"},
		CreatedAt:     created,
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title || got.State != "Open" {
		t.Fatalf("unexpected task get result: %#v", got)
	}
	if len(got.AllowedAppIDs) != 2 || got.AllowedAppIDs[1] != "terminal" || len(got.AllowedTitles) != 1 {
		t.Fatalf("allow-lists not round-tripped: %#v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at mismatch: %v", got.CreatedAt)
	}

	task.Title = "Write invoice export v2"
	task.State = "Active"
	task.AllowedTitles = nil
	if err := repo.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update task: %v", err)
	}

	active, err := repo.ListTasks(ctx, TaskListFilter{State: "Active"})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(active) != 1 || active[0].ID != task.ID {
		t.Fatalf("unexpected active list: %#v", active)
	}
	if active[0].AllowedTitles == nil || len(active[0].AllowedTitles) != 0 {
		t.Fatalf("expected empty title list, got %#v", active[0].AllowedTitles)
	}

	if err := repo.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	_, err = repo.GetTask(ctx, task.ID)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if err := repo.UpdateTask(ctx, task); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on update of deleted task, got: %v", err)
	}
}

func TestListTasksPagination(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := parseRFC3339(t, "2026-02-09T12:00:00Z")
	for i, id := range []string{"a", "b", "c"} {
		if err := repo.CreateTask(ctx, Task{ID: id, Title: id, State: "Open", CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	page, err := repo.ListTasks(ctx, TaskListFilter{Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != "b" || page[1].ID != "a" {
		t.Fatalf("unexpected page: %#v", page)
	}
}

func TestRotateFocusAndSamples(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	t0 := parseRFC3339(t, "2026-02-09T09:00:00Z")

	if _, err := repo.GetCurrentFocus(ctx); err != ErrNotFound {
		t.Fatalf("expected no focus, got %v", err)
	}
	if err := repo.TouchCurrentFocus(ctx, t0); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound touching missing focus, got %v", err)
	}

	first := CurrentFocus{AppID: "code", Title: "main.go", StartedAt: t0, ObservedAt: t0}
	if err := repo.RotateFocus(ctx, nil, &first); err != nil {
		t.Fatalf("rotate first: %v", err)
	}
	if err := repo.TouchCurrentFocus(ctx, t0.Add(30*time.Second)); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, err := repo.GetCurrentFocus(ctx)
	if err != nil {
		t.Fatalf("get focus: %v", err)
	}
	if got.AppID != "code" || !got.ObservedAt.Equal(t0.Add(30*time.Second)) || !got.StartedAt.Equal(t0) {
		t.Fatalf("unexpected focus: %#v", got)
	}

	closed := FocusSample{AppID: "code", Title: "main.go", StartedAt: t0, EndedAt: t0.Add(time.Minute)}
	second := CurrentFocus{AppID: "slack", Title: "general", StartedAt: t0.Add(time.Minute), ObservedAt: t0.Add(time.Minute)}
	if err := repo.RotateFocus(ctx, &closed, &second); err != nil {
		t.Fatalf("rotate second: %v", err)
	}
	closed2 := FocusSample{AppID: "slack", Title: "general", StartedAt: t0.Add(time.Minute), EndedAt: t0.Add(90 * time.Second)}
	if err := repo.RotateFocus(ctx, &closed2, nil); err != nil {
		t.Fatalf("rotate clear: %v", err)
	}
	if _, err := repo.GetCurrentFocus(ctx); err != ErrNotFound {
		t.Fatalf("expected cleared focus, got %v", err)
	}

	all, err := repo.ListFocusSamples(ctx, FocusSampleFilter{})
	if err != nil {
		t.Fatalf("list samples: %v", err)
	}
	if len(all) != 2 || all[0].AppID != "code" || all[1].Duration() != 30*time.Second {
		t.Fatalf("unexpected samples: %#v", all)
	}

	window, err := repo.ListFocusSamples(ctx, FocusSampleFilter{From: t0.Add(65 * time.Second), To: t0.Add(2 * time.Minute)})
	if err != nil {
		t.Fatalf("list window: %v", err)
	}
	if len(window) != 1 || window[0].AppID != "slack" {
		t.Fatalf("expected only overlapping slack sample, got %#v", window)
	}
}

func TestPomodoroStateUpsert(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-09T12:00:00Z")

	if _, err := repo.GetPomodoroState(ctx, "client-a"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.PutPomodoroState(ctx, PomodoroRecord{ClientID: "client-a", StateJSON: []byte(`{"cycle_step":1}`), UpdatedAt: now}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutPomodoroState(ctx, PomodoroRecord{ClientID: "client-a", StateJSON: []byte(`{"cycle_step":2}`), UpdatedAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("put again: %v", err)
	}
	got, err := repo.GetPomodoroState(ctx, "client-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.StateJSON) != `{"cycle_step":2}` || !got.UpdatedAt.Equal(now.Add(time.Second)) {
		t.Fatalf("unexpected record: %#v", got)
	}
	if err := repo.PutPomodoroState(ctx, PomodoroRecord{StateJSON: []byte(`{}`)}); err == nil {
		t.Fatal("expected error for empty client id")
	}
}

func TestDailyStatsAccumulate(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	for _, sec := range []int{1500, 1500, 900} {
		if err := repo.AddFocusSession(ctx, "2026-02-09", sec); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := repo.AddFocusSession(ctx, "2026-02-10", 1500); err != nil {
		t.Fatalf("add next day: %v", err)
	}
	if err := repo.AddFocusSession(ctx, "2026-02-10", -1); err == nil {
		t.Fatal("expected negative seconds to be rejected")
	}

	stats, err := repo.ListDailyStats(ctx, DailyStatFilter{From: "2026-02-09", To: "2026-02-09"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stats) != 1 || stats[0].FocusSeconds != 3900 || stats[0].Sessions != 3 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestSettings(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	if _, err := repo.GetSetting(ctx, "focus_minutes"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.PutSetting(ctx, "focus_minutes", "25"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutSetting(ctx, "focus_minutes", "30"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	all, err := repo.ListSettings(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all["focus_minutes"] != "30" || len(all) != 1 {
		t.Fatalf("unexpected settings: %#v", all)
	}
}

func TestDecodeListToleratesGarbage(t *testing.T) {
	if got := decodeList("not-json"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %#v", got)
	}
	if got := decodeList(`["a","b"]`); len(got) != 2 {
		t.Fatalf("expected two entries, got %#v", got)
	}
}
