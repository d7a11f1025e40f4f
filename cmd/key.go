package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/backend"
	"github.com/abhisek/mathsheet/internal/store"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored API key for the configured provider",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store an API key (read from stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key: %w", err)
			}
			key = line
		}

		return withBackend(cmd, func(be *backend.Backend) error {
			if _, err := be.Save(cmd.Context(), key); err != nil {
				if errors.Is(err, backend.ErrEmptyKey) {
					return errors.New("key is empty")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", be.CredentialKey())
			return nil
		})
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which key is active and where it comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(be *backend.Backend) error {
			key, source, err := be.Key(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if key == "" {
				fmt.Fprintf(out, "%s: not set\n", be.CredentialKey())
				return nil
			}
			fmt.Fprintf(out, "%s: %s (%s)\n", be.CredentialKey(), maskKey(key), source)
			return nil
		})
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(be *backend.Backend) error {
			if err := be.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", be.CredentialKey())
			return nil
		})
	},
}

// withBackend opens the store and builds a backend without touching the
// provider, so key commands work with no key configured.
func withBackend(cmd *cobra.Command, fn func(*backend.Backend) error) error {
	cfg, err := appCtx.ensureConfig()
	if err != nil {
		return err
	}
	return appCtx.withStore(func(s *store.Store) error {
		be := backend.New(cfg.LLMConfig(), cfg.GeneratorConfig(), s.CredentialRepo(),
			backend.WithEventRepo(s.EventRepo()),
		)
		return fn(be)
	})
}

func maskKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyClearCmd)
}
