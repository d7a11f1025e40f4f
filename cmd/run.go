package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/app"
)

// runApp builds the runtime, loads any files given on the command line
// and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := appCtx.ensureConfig()
	if err != nil {
		return err
	}
	logPath, err := tuiLogPath(cfg)
	if err != nil {
		return fmt.Errorf("resolve log path: %w", err)
	}

	rt, err := appCtx.newRuntime(ctx, logPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := loadFiles(cmd, rt.session); err != nil {
		return err
	}

	go func() {
		if err := rt.bridge.Warm(ctx); err != nil {
			rt.logger.Warn("sandbox warm-up failed", "error", err)
		}
	}()

	return app.Run(app.Options{
		Context: ctx,
		Session: rt.session,
		Title:   cfg.Worksheet.Title,
		Footer:  cfg.Worksheet.Footer,
		OutDir:  ".",
	})
}
