package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7345" || cfg.Server.FocusStaleAfter != 2*time.Minute {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Dashboard.APIURL != "http://127.0.0.1:7345" || cfg.Dashboard.PollInterval != 2*time.Second {
		t.Fatalf("unexpected dashboard defaults: %+v", cfg.Dashboard)
	}
	d := cfg.Pomodoro.Durations()
	if d.Focus != 1500 || d.ShortBreak != 300 || d.LongBreak != 900 {
		t.Fatalf("unexpected durations: %+v", d)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
server:
  addr: 0.0.0.0:9000
  focus_stale_after: 45s
dashboard:
  api_url: http://focus.local:9000/
pomodoro:
  focus_minutes: 50
  auto_start_breaks: true
logging:
  level: debug
`)
	t.Setenv("FOCUSD_POMODORO_SHORT_BREAK_MINUTES", "10")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" || cfg.Server.FocusStaleAfter != 45*time.Second {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Dashboard.APIURL != "http://focus.local:9000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Dashboard.APIURL)
	}
	if cfg.Pomodoro.FocusMinutes != 50 || cfg.Pomodoro.ShortBreakMinutes != 10 || !cfg.Pomodoro.AutoStartBreaks {
		t.Fatalf("unexpected pomodoro config: %+v", cfg.Pomodoro)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("pomodoro.focus_minutes", 0)
	v.Set("server.addr", "")
	_, err := Load(v)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "pomodoro.focus_minutes") || !strings.Contains(msg, "server.addr") {
		t.Fatalf("expected both problems reported, got %q", msg)
	}
}

func TestResolveClientIDPersists(t *testing.T) {
	dir := t.TempDir()
	if id, err := ResolveClientID(" fixed ", dir); err != nil || id != "fixed" {
		t.Fatalf("configured id must win, got %q err=%v", id, err)
	}
	first, err := ResolveClientID("", dir)
	if err != nil || first == "" {
		t.Fatalf("generate id: %q err=%v", first, err)
	}
	second, err := ResolveClientID("", dir)
	if err != nil || second != first {
		t.Fatalf("expected stored id %q, got %q err=%v", first, second, err)
	}
}

func TestWatcherAppliesEdits(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "pomodoro:\n  focus_minutes: 25\n")

	w := NewWatcher(path, nil)
	w.debounce = 10 * time.Millisecond
	applied := make(chan *Config, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(c *Config) { applied <- c }) }()

	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		// Keep rewriting until the watcher has registered and sees a change.
		writeConfig(t, dir, "pomodoro:\n  focus_minutes: 40\n")
		select {
		case cfg := <-applied:
			if cfg.Pomodoro.FocusMinutes != 40 {
				continue
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("run: %v", err)
			}
			return
		case <-deadline:
			t.Fatal("config edit was never applied")
		case <-tick.C:
		}
	}
}
