package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Create a sample configuration file",
	Annotations: map[string]string{"skipConfigLoad": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		targetPath, _ := cmd.Flags().GetString("path")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		target := strings.TrimSpace(targetPath)
		if target == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("determine default config path: %w", err)
			}
			target = defaultPath
		} else {
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			target = expanded
		}

		dir := filepath.Dir(target)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory %q: %w", dir, err)
		}

		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}
		}

		if err := config.CreateSample(target); err != nil {
			return fmt.Errorf("create sample config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
		fmt.Fprintln(out, "Set llm.api_key (or export GEMINI_API_KEY), or run `mathsheet key set`.")
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := appCtx.ensureConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if _, err := cfg.DBPath(); err != nil {
			return fmt.Errorf("ensure directories: %w", err)
		}
		llmCfg := cfg.LLMConfig()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config path: %s\n", appCtx.configPath)
		if !appCtx.configSeen {
			fmt.Fprintln(out, "Config file did not exist; defaults were used")
		}
		fmt.Fprintf(out, "Provider: %s\n", llmCfg.Provider)
		if llmCfg.APIKey() == "" && llmCfg.Provider != "mock" {
			fmt.Fprintf(out, "No %s configured; the stored key is used if present\n", llmCfg.CredentialKey())
		}
		fmt.Fprintln(out, "Configuration valid")
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringP("path", "p", "", "Destination for the configuration file")
	configInitCmd.Flags().Bool("overwrite", false, "Overwrite existing configuration if present")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}
