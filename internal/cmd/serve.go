package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandeepkv93/focusd/internal/api"
	"github.com/sandeepkv93/focusd/internal/logging"
	"github.com/sandeepkv93/focusd/internal/storage"
	"github.com/sandeepkv93/focusd/internal/tracking"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local focus API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().String("db", "", "sqlite database path (overrides server.db_path)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Server.DBPath = db
	}

	logger, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Close()

	repo, err := storage.OpenSQLite(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := tracking.New(repo,
		tracking.WithLogger(logger.Component("tracking")),
		tracking.WithStaleAfter(cfg.Server.FocusStaleAfter),
	)
	trackerCtx, cancelTracker := context.WithCancel(ctx)
	trackerDone := make(chan error, 1)
	go func() { trackerDone <- tracker.Run(trackerCtx) }()

	handler := api.NewHandler(repo, tracker, api.WithLogger(logger.Component("api")))
	srv := api.NewServer(cfg.Server.Addr, handler.Router())
	logger.Info("focusd listening", "addr", cfg.Server.Addr, "db", cfg.Server.DBPath, "stale_after", cfg.Server.FocusStaleAfter)

	serveErr := api.Serve(ctx, srv)
	cancelTracker()
	if err := <-trackerDone; err != nil {
		logger.Error("focus tracker stopped", "error", err)
	}
	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	logger.Info("focusd stopped")
	return nil
}
