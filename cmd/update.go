package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/selfupdate"
)

// installer is the part of selfupdate.Checker the update command drives.
type installer interface {
	Update(ctx context.Context, input *selfupdate.UpdateInput, progress func(selfupdate.UpdateProgress)) error
}

var updateCmd = &cobra.Command{
	Use:         "update",
	Short:       "Install the latest mathsheet release over this binary",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"skipConfigLoad": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("to")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		checker := selfupdate.NewChecker(selfupdate.WithTimeout(timeout))
		return runUpdate(ctx, cmd.OutOrStdout(), checker, version, target)
	},
}

func init() {
	updateCmd.Flags().String("to", "", "Install this release tag instead of the latest")
	updateCmd.Flags().Duration("timeout", 2*time.Minute, "Give up if the download takes longer than this")
}

// runUpdate installs a release and prints each stage as it starts.
// Outcomes that leave the binary untouched on purpose are reported as
// messages rather than errors.
func runUpdate(ctx context.Context, out io.Writer, in installer, current, target string) error {
	target = strings.TrimSpace(target)
	err := in.Update(ctx, &selfupdate.UpdateInput{
		CurrentVersion: current,
		TargetVersion:  target,
	}, func(p selfupdate.UpdateProgress) {
		fmt.Fprintf(out, "%-9s %s\n", p.Stage, p.Message)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, selfupdate.ErrDevBuild):
		fmt.Fprintf(out, "This is a development build (%s) and cannot update itself.\nInstall a release build first.\n", current)
		return nil
	case errors.Is(err, selfupdate.ErrAlreadyLatest):
		fmt.Fprintf(out, "mathsheet %s is the latest release.\n", current)
		return nil
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w\n\nThe executable is not writable by this user. Try: sudo mathsheet update", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("update timed out, retry with a longer --timeout: %w", err)
	default:
		if target != "" {
			return fmt.Errorf("install %s: %w", target, err)
		}
		return fmt.Errorf("install latest release: %w", err)
	}
}
