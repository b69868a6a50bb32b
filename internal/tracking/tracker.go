// Package tracking keeps the single "current focus" row up to date from the
// reports sent by the browser extension and turns focus changes into usage
// history.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/scheduler"
	"github.com/sandeepkv93/focusd/internal/storage"
)

const (
	DefaultStaleAfter = 2 * time.Minute
	expiryKind        = "focus-expiry"
	// There is one current focus, so one expiry deadline covers it.
	expiryKey = "current-focus"
)

// Store is the subset of storage.Repository the tracker needs.
type Store interface {
	GetCurrentFocus(ctx context.Context) (storage.CurrentFocus, error)
	TouchCurrentFocus(ctx context.Context, observedAt time.Time) error
	RotateFocus(ctx context.Context, closed *storage.FocusSample, next *storage.CurrentFocus) error
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func WithStaleAfter(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.staleAfter = d
		}
	}
}

type Tracker struct {
	mu         sync.Mutex
	store      Store
	engine     *scheduler.Engine
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func New(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:      store,
		engine:     scheduler.NewEngine(4),
		staleAfter: DefaultStaleAfter,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) StaleAfter() time.Duration { return t.staleAfter }

// Run delivers stale-focus expiries until ctx is cancelled. A focus left over
// from a previous run gets its expiry scheduled on startup.
func (t *Tracker) Run(ctx context.Context) error {
	t.engine.Start()
	defer t.engine.Stop()

	if cur, err := t.store.GetCurrentFocus(ctx); err == nil {
		t.scheduleExpiry(cur)
	} else if !errors.Is(err, storage.ErrNotFound) {
		t.logger.Warn("load current focus", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-t.engine.C():
			if !ok {
				return nil
			}
			if ev.Kind != expiryKind {
				continue
			}
			if _, err := t.Expire(ctx, ev); err != nil {
				t.logger.Error("expire focus", "error", err, "app_id", ev.Subject)
			}
		}
	}
}

// Report records what the extension says is focused right now. A change of
// window closes the previous sample into history; the same window only
// refreshes observed_at. An empty report clears the focus.
func (t *Tracker) Report(ctx context.Context, in model.CurrentFocus) (*model.CurrentFocus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	in.AppID = strings.TrimSpace(in.AppID)
	in.Title = strings.TrimSpace(in.Title)

	prev, err := t.store.GetCurrentFocus(ctx)
	hasPrev := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load current focus: %w", err)
	}

	if in.IsEmpty() {
		if !hasPrev {
			return nil, nil
		}
		if err := t.store.RotateFocus(ctx, closeSample(prev, now), nil); err != nil {
			return nil, fmt.Errorf("clear focus: %w", err)
		}
		t.engine.Cancel(expiryKey)
		t.logger.Debug("focus cleared", "app_id", prev.AppID)
		return nil, nil
	}

	if hasPrev && toModel(prev).SameWindow(in) && !t.isStale(prev, now) {
		if err := t.store.TouchCurrentFocus(ctx, now); err != nil {
			return nil, fmt.Errorf("refresh focus: %w", err)
		}
		prev.ObservedAt = now
		t.scheduleExpiry(prev)
		return toModel(prev), nil
	}

	var closed *storage.FocusSample
	if hasPrev {
		closed = closeSample(prev, t.endOf(prev, now))
	}
	next := storage.CurrentFocus{AppID: in.AppID, Title: in.Title, StartedAt: now, ObservedAt: now}
	if err := t.store.RotateFocus(ctx, closed, &next); err != nil {
		return nil, fmt.Errorf("rotate focus: %w", err)
	}
	t.logger.Debug("focus changed", "app_id", next.AppID, "title", next.Title)
	t.scheduleExpiry(next)
	return toModel(next), nil
}

// Current returns the focused window, or nil when there is none or the last
// report is older than the stale window.
func (t *Tracker) Current(ctx context.Context) (*model.CurrentFocus, error) {
	cur, err := t.store.GetCurrentFocus(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t.isStale(cur, t.now()) {
		return nil, nil
	}
	return toModel(cur), nil
}

// Expire closes and clears the current focus if ev still describes it. It
// reports whether anything was cleared; superseded events are ignored.
func (t *Tracker) Expire(ctx context.Context, ev scheduler.Event) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, err := t.store.GetCurrentFocus(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !cur.ObservedAt.Equal(ev.Stamp) || !strings.EqualFold(cur.AppID, ev.Subject) {
		return false, nil
	}
	if err := t.store.RotateFocus(ctx, closeSample(cur, ev.TriggerAt), nil); err != nil {
		return false, fmt.Errorf("expire focus: %w", err)
	}
	t.logger.Info("focus expired", "app_id", cur.AppID, "observed_at", cur.ObservedAt)
	return true, nil
}

func (t *Tracker) scheduleExpiry(cur storage.CurrentFocus) {
	ev := scheduler.Event{
		Key:       expiryKey,
		Subject:   cur.AppID,
		Kind:      expiryKind,
		Stamp:     cur.ObservedAt,
		TriggerAt: cur.ObservedAt.Add(t.staleAfter),
	}
	if err := t.engine.Schedule(ev); err != nil && !errors.Is(err, scheduler.ErrStopped) {
		t.logger.Warn("schedule focus expiry", "error", err)
	}
}

func (t *Tracker) isStale(cur storage.CurrentFocus, now time.Time) bool {
	return now.Sub(cur.ObservedAt) > t.staleAfter
}

// endOf is where a sample ends when it is replaced: now, unless the window
// had already gone stale, in which case at its expiry.
func (t *Tracker) endOf(cur storage.CurrentFocus, now time.Time) time.Time {
	if t.isStale(cur, now) {
		return cur.ObservedAt.Add(t.staleAfter)
	}
	return now
}

func closeSample(cur storage.CurrentFocus, end time.Time) *storage.FocusSample {
	if end.Before(cur.StartedAt) {
		end = cur.StartedAt
	}
	return &storage.FocusSample{AppID: cur.AppID, Title: cur.Title, StartedAt: cur.StartedAt, EndedAt: end}
}

func toModel(cur storage.CurrentFocus) *model.CurrentFocus {
	return &model.CurrentFocus{AppID: cur.AppID, Title: cur.Title, ObservedAt: cur.ObservedAt}
}
