package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/focusd/internal/client"
	"github.com/sandeepkv93/focusd/internal/config"
	"github.com/sandeepkv93/focusd/internal/logging"
	"github.com/sandeepkv93/focusd/internal/update"
	"github.com/spf13/cobra"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the terminal dashboard",
	Args:  cobra.NoArgs,
	RunE:  runDash,
}

func init() {
	dashCmd.Flags().String("api", "", "focusd API base URL (overrides dashboard.api_url)")
	rootCmd.AddCommand(dashCmd)
}

func runDash(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiURL, _ := cmd.Flags().GetString("api"); apiURL != "" {
		cfg.Dashboard.APIURL = apiURL
	}

	// The dashboard owns the terminal, so logs always go to a file.
	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = filepath.Join(config.Dir(), "dashboard.log")
	}
	logger, err := logging.New(logPath, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Close()

	clientID, err := config.ResolveClientID(cfg.Dashboard.ClientID, config.Dir())
	if err != nil {
		return err
	}
	logger.Info("dashboard starting", "api", cfg.Dashboard.APIURL, "client_id", clientID)

	backend := client.New(cfg.Dashboard.APIURL, client.WithTimeout(cfg.Dashboard.RequestTimeout))
	model := update.NewModel(update.Options{
		Backend:         backend,
		ClientID:        clientID,
		Durations:       cfg.Pomodoro.Durations(),
		AutoStartBreaks: cfg.Pomodoro.AutoStartBreaks,
		PollInterval:    cfg.Dashboard.PollInterval,
		RequestTimeout:  cfg.Dashboard.RequestTimeout,
		Logger:          logger.Component("dashboard"),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	watcher := config.NewWatcher(configPath(), logger.Component("config"))
	go func() {
		err := watcher.Run(ctx, func(c *config.Config) {
			program.Send(update.ConfigReloadedMsg{
				Durations:       c.Pomodoro.Durations(),
				AutoStartBreaks: c.Pomodoro.AutoStartBreaks,
			})
		})
		if err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
