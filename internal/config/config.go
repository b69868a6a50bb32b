// Package config loads focusd settings from the YAML config file, FOCUSD_*
// environment variables and command line flags, in that order of increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/sandeepkv93/focusd/internal/pomodoro"
)

const EnvPrefix = "FOCUSD"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Pomodoro  PomodoroConfig  `mapstructure:"pomodoro"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	DBPath          string        `mapstructure:"db_path"`
	FocusStaleAfter time.Duration `mapstructure:"focus_stale_after"`
}

type DashboardConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	ClientID       string        `mapstructure:"client_id"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type PomodoroConfig struct {
	FocusMinutes      int  `mapstructure:"focus_minutes"`
	ShortBreakMinutes int  `mapstructure:"short_break_minutes"`
	LongBreakMinutes  int  `mapstructure:"long_break_minutes"`
	AutoStartBreaks   bool `mapstructure:"auto_start_breaks"`
}

// Durations converts the configured minutes to timer seconds.
func (p PomodoroConfig) Durations() pomodoro.Durations {
	return pomodoro.Durations{
		Focus:      p.FocusMinutes * 60,
		ShortBreak: p.ShortBreakMinutes * 60,
		LongBreak:  p.LongBreakMinutes * 60,
	}
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:7345",
			DBPath:          "focusd.db",
			FocusStaleAfter: 2 * time.Minute,
		},
		Dashboard: DashboardConfig{
			PollInterval:   2 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Pomodoro: PomodoroConfig{
			FocusMinutes:      25,
			ShortBreakMinutes: 5,
			LongBreakMinutes:  15,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// SetDefaults registers every key on v so env overrides work even for keys
// missing from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.db_path", d.Server.DBPath)
	v.SetDefault("server.focus_stale_after", d.Server.FocusStaleAfter)

	v.SetDefault("dashboard.api_url", d.Dashboard.APIURL)
	v.SetDefault("dashboard.client_id", d.Dashboard.ClientID)
	v.SetDefault("dashboard.poll_interval", d.Dashboard.PollInterval)
	v.SetDefault("dashboard.request_timeout", d.Dashboard.RequestTimeout)

	v.SetDefault("pomodoro.focus_minutes", d.Pomodoro.FocusMinutes)
	v.SetDefault("pomodoro.short_break_minutes", d.Pomodoro.ShortBreakMinutes)
	v.SetDefault("pomodoro.long_break_minutes", d.Pomodoro.LongBreakMinutes)
	v.SetDefault("pomodoro.auto_start_breaks", d.Pomodoro.AutoStartBreaks)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

// Prepare wires defaults, env lookup and the config file search path into v.
// An explicit cfgFile wins over the search path.
func Prepare(v *viper.Viper, cfgFile string) {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Read loads the config file into v. A missing file is not an error.
func Read(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("read config: %w", err)
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Dashboard.APIURL = strings.TrimRight(strings.TrimSpace(cfg.Dashboard.APIURL), "/")
	if cfg.Dashboard.APIURL == "" {
		cfg.Dashboard.APIURL = "http://" + cfg.Server.Addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a single config file with env overrides applied. The
// dashboard uses it to pick up edits while running.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	Prepare(v, path)
	if err := Read(v); err != nil {
		return nil, err
	}
	return Load(v)
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.Server.DBPath) == "" {
		errs = append(errs, errors.New("server.db_path is required"))
	}
	if c.Server.FocusStaleAfter <= 0 {
		errs = append(errs, errors.New("server.focus_stale_after must be positive"))
	}
	if c.Dashboard.PollInterval < 100*time.Millisecond {
		errs = append(errs, errors.New("dashboard.poll_interval must be at least 100ms"))
	}
	if c.Dashboard.RequestTimeout <= 0 {
		errs = append(errs, errors.New("dashboard.request_timeout must be positive"))
	}
	steps := []struct {
		key     string
		minutes int
	}{
		{"pomodoro.focus_minutes", c.Pomodoro.FocusMinutes},
		{"pomodoro.short_break_minutes", c.Pomodoro.ShortBreakMinutes},
		{"pomodoro.long_break_minutes", c.Pomodoro.LongBreakMinutes},
	}
	for _, step := range steps {
		if step.minutes < 1 || step.minutes > 24*60 {
			errs = append(errs, fmt.Errorf("%s must be between 1 and 1440, got %d", step.key, step.minutes))
		}
	}
	return errors.Join(errs...)
}

// Dir is the user's focusd config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "focusd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".focusd"
	}
	return filepath.Join(home, ".config", "focusd")
}

func File() string {
	return filepath.Join(Dir(), "config.yaml")
}

// ResolveClientID returns configured when set. Otherwise it reads the id
// stored in dir, generating and saving a new one on first use, so a
// dashboard keeps its Pomodoro record across restarts.
func ResolveClientID(configured, dir string) (string, error) {
	if id := strings.TrimSpace(configured); id != "" {
		return id, nil
	}
	path := filepath.Join(dir, "client_id")
	if raw, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read client id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write client id: %w", err)
	}
	return id, nil
}
