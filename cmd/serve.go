package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the worksheet HTTP API for the browser front-end",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, err := appCtx.ensureConfig()
		if err != nil {
			return err
		}
		if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
			cfg.Server.Bind = bind
		}

		dbPath, err := cfg.DBPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		lockPath := filepath.Join(filepath.Dir(dbPath), "mathsheet.lock")
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return errors.New("another mathsheet server instance is already running")
		}
		defer func() { _ = lock.Unlock() }()

		rt, err := appCtx.newRuntime(ctx, "")
		if err != nil {
			return err
		}
		defer rt.Close()

		if warm, _ := cmd.Flags().GetBool("warm"); warm {
			go func() {
				if err := rt.bridge.Warm(ctx); err != nil {
					rt.logger.Warn("sandbox warm-up failed", "error", err)
				}
			}()
		}

		srv := server.New(rt.session, rt.backend, server.Options{
			Bind:            cfg.Server.Bind,
			ReadTimeout:     time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout:    time.Duration(cfg.Server.WriteTimeout) * time.Second,
			ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
			MaxUploadBytes:  int64(cfg.Server.MaxUploadMiB) << 20,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			Title:           cfg.Worksheet.Title,
			Footer:          cfg.Worksheet.Footer,
			Logger:          rt.logger,
		})

		rt.logger.Info("mathsheet server starting",
			"bind", cfg.Server.Bind,
			"provider", rt.backend.Provider(),
			"credential_ready", rt.session.Ready(),
			"lock", lockPath,
		)
		if err := srv.Run(ctx); err != nil {
			return err
		}
		rt.logger.Info("mathsheet server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("bind", "", "Listen address (overrides server.bind)")
	serveCmd.Flags().Bool("warm", true, "Start the Python interpreter before the first request")
}
