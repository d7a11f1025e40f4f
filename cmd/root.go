package cmd

import (
	"github.com/spf13/cobra"
)

var appCtx = &commandContext{}

var rootCmd = &cobra.Command{
	Use:           "mathsheet",
	Short:         "AI worksheet builder for math teachers",
	Long:          "mathsheet turns a curriculum outline and a question bank into a printable worksheet with rendered diagrams.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if shouldSkipConfig(cmd) {
			return nil
		}
		_, err := appCtx.ensureConfig()
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&appCtx.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&appCtx.dbFlag, "db", "", "Path to SQLite database file (overrides MATHSHEET_DB)")
	flags.StringVar(&appCtx.modelFlag, "model", "", "Model name for the configured provider")
	flags.StringVar(&appCtx.logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	addFileFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}
