package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Fixed-width fractions keep stored timestamps lexically ordered, which the
// range queries rely on.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, state, allowed_app_ids, allowed_titles, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, in.Description, in.State,
		encodeList(in.AllowedAppIDs), encodeList(in.AllowedTitles),
		mustTime(in.CreatedAt), nullTime(in.CompletedAt),
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, state, allowed_app_ids, allowed_titles, created_at, completed_at
		FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, state = ?, allowed_app_ids = ?, allowed_titles = ?, completed_at = ?
		WHERE id = ?`,
		in.Title, in.Description, in.State,
		encodeList(in.AllowedAppIDs), encodeList(in.AllowedTitles),
		nullTime(in.CompletedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error) {
	query := `SELECT id, title, description, state, allowed_app_ids, allowed_titles, created_at, completed_at FROM tasks`
	args := make([]any, 0, 3)
	if filter.State != "" {
		query += ` WHERE state = ?`
		args = append(args, filter.State)
	}
	query += ` ORDER BY created_at DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCurrentFocus(ctx context.Context) (CurrentFocus, error) {
	row := r.db.QueryRowContext(ctx, `SELECT app_id, title, started_at, observed_at FROM current_focus WHERE id = 1`)
	var out CurrentFocus
	var started, observed string
	if err := row.Scan(&out.AppID, &out.Title, &started, &observed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CurrentFocus{}, ErrNotFound
		}
		return CurrentFocus{}, err
	}
	var err error
	if out.StartedAt, err = parseRequiredTime(started); err != nil {
		return CurrentFocus{}, err
	}
	if out.ObservedAt, err = parseRequiredTime(observed); err != nil {
		return CurrentFocus{}, err
	}
	return out, nil
}

func (r *SQLiteRepository) TouchCurrentFocus(ctx context.Context, observedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE current_focus SET observed_at = ? WHERE id = 1`, mustTime(observedAt))
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) RotateFocus(ctx context.Context, closed *FocusSample, next *CurrentFocus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin focus rotation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if closed != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO focus_samples (app_id, title, started_at, ended_at)
			VALUES (?, ?, ?, ?)`,
			closed.AppID, closed.Title, mustTime(closed.StartedAt), mustTime(closed.EndedAt),
		); err != nil {
			return fmt.Errorf("append focus sample: %w", err)
		}
	}
	if next == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM current_focus WHERE id = 1`); err != nil {
			return fmt.Errorf("clear current focus: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO current_focus (id, app_id, title, started_at, observed_at)
			VALUES (1, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				app_id = excluded.app_id,
				title = excluded.title,
				started_at = excluded.started_at,
				observed_at = excluded.observed_at`,
			next.AppID, next.Title, mustTime(next.StartedAt), mustTime(next.ObservedAt),
		); err != nil {
			return fmt.Errorf("store current focus: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListFocusSamples(ctx context.Context, filter FocusSampleFilter) ([]FocusSample, error) {
	query := `SELECT id, app_id, title, started_at, ended_at FROM focus_samples`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	// Samples overlapping the window are returned; callers clip them.
	if !filter.From.IsZero() {
		clauses = append(clauses, "ended_at > ?")
		args = append(args, mustTime(filter.From))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "started_at < ?")
		args = append(args, mustTime(filter.To))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY started_at ASC`
	query += applyPagination(&args, filter.Limit, 0)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]FocusSample, 0)
	for rows.Next() {
		item, scanErr := scanFocusSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetPomodoroState(ctx context.Context, clientID string) (PomodoroRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT client_id, state_json, updated_at FROM pomodoro_states WHERE client_id = ?`, clientID)
	var out PomodoroRecord
	var stateJSON, updated string
	if err := row.Scan(&out.ClientID, &stateJSON, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PomodoroRecord{}, ErrNotFound
		}
		return PomodoroRecord{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return PomodoroRecord{}, err
	}
	out.StateJSON = []byte(stateJSON)
	out.UpdatedAt = updatedAt
	return out, nil
}

func (r *SQLiteRepository) PutPomodoroState(ctx context.Context, in PomodoroRecord) error {
	if strings.TrimSpace(in.ClientID) == "" {
		return errors.New("storage: pomodoro client id is required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pomodoro_states (client_id, state_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`,
		in.ClientID, string(in.StateJSON), mustTime(in.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) AddFocusSession(ctx context.Context, day string, focusSeconds int) error {
	if focusSeconds < 0 {
		return fmt.Errorf("storage: negative focus seconds %d", focusSeconds)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_stats (day, focus_seconds, sessions)
		VALUES (?, ?, 1)
		ON CONFLICT(day) DO UPDATE SET
			focus_seconds = daily_stats.focus_seconds + excluded.focus_seconds,
			sessions = daily_stats.sessions + 1`,
		day, focusSeconds,
	)
	return err
}

func (r *SQLiteRepository) ListDailyStats(ctx context.Context, filter DailyStatFilter) ([]DailyStat, error) {
	query := `SELECT day, focus_seconds, sessions FROM daily_stats`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.From != "" {
		clauses = append(clauses, "day >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "day <= ?")
		args = append(args, filter.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY day ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DailyStat, 0)
	for rows.Next() {
		var item DailyStat
		if err := rows.Scan(&item.Day, &item.FocusSeconds, &item.Sessions); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) PutSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (r *SQLiteRepository) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// decodeList tolerates malformed stored values by treating them as empty.
func decodeList(raw string) []string {
	out := make([]string, 0)
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return make([]string, 0)
	}
	return out
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (Task, error) {
	var out Task
	var apps, titles string
	var created string
	var completed sql.NullString
	if err := s.Scan(&out.ID, &out.Title, &out.Description, &out.State, &apps, &titles, &created, &completed); err != nil {
		return Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Task{}, err
	}
	completedAt, err := parseNullableTime(completed)
	if err != nil {
		return Task{}, err
	}
	out.AllowedAppIDs = decodeList(apps)
	out.AllowedTitles = decodeList(titles)
	out.CreatedAt = createdAt
	out.CompletedAt = completedAt
	return out, nil
}

func scanFocusSample(s scanner) (FocusSample, error) {
	var out FocusSample
	var started, ended string
	if err := s.Scan(&out.ID, &out.AppID, &out.Title, &started, &ended); err != nil {
		return FocusSample{}, err
	}
	startedAt, err := parseRequiredTime(started)
	if err != nil {
		return FocusSample{}, err
	}
	endedAt, err := parseRequiredTime(ended)
	if err != nil {
		return FocusSample{}, err
	}
	out.StartedAt = startedAt
	out.EndedAt = endedAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
