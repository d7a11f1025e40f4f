package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Propose worksheet topics from curriculum and question bank files",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := appCtx.newRuntime(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := loadFiles(cmd, rt.session); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		topics, err := rt.session.Analyze(cmd.Context())
		if err != nil {
			return flowError(rt, "analyze", err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(topics)
		}

		if len(topics) == 0 {
			fmt.Fprintln(out, "No topics proposed.")
			return nil
		}
		describeFiles(out, rt.session.Files())
		fmt.Fprintln(out, topicsTable(topics))
		return nil
	},
}

func init() {
	addFileFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "Print topics as JSON")
}
