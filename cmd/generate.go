package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/docx"
	"github.com/abhisek/mathsheet/internal/problemgen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Analyze, generate questions with diagrams and write a Word worksheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := appCtx.newRuntime(ctx, "")
		if err != nil {
			return err
		}
		defer rt.Close()

		sess := rt.session
		if err := loadFiles(cmd, sess); err != nil {
			return err
		}
		if !sess.Ready() {
			return flowError(rt, "generate", problemgen.ErrNoCredential)
		}

		if len(sess.Files()) > 0 || sess.Settings().ManualTopic != "" {
			if _, err := sess.Analyze(ctx); err != nil {
				return flowError(rt, "analyze", err)
			}
		}

		filters, _ := cmd.Flags().GetStringSlice("topic")
		if err := applyTopicFilter(sess, filters); err != nil {
			return err
		}
		counts, _ := cmd.Flags().GetStringToInt("counts")
		if err := applyCounts(sess, counts); err != nil {
			return err
		}

		questions, err := sess.Generate(ctx)
		if err != nil {
			return flowError(rt, "generate", err)
		}
		if len(questions) == 0 {
			return errors.New("nothing to generate: select at least one topic or pass --manual-topic")
		}

		title, _ := cmd.Flags().GetString("title")
		if strings.TrimSpace(title) == "" {
			title = rt.cfg.Worksheet.Title
		}
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = docx.FileName(title)
		}
		if err := writeWorksheet(rt, path, title); err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), sess.Summary(), path)
		return nil
	},
}

func writeWorksheet(rt *runtime, path, title string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := rt.session.Export(f, title, docx.WithFooter(rt.cfg.Worksheet.Footer)); err != nil {
		f.Close()
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}

func init() {
	addFileFlags(generateCmd)
	generateCmd.Flags().StringSlice("topic", nil, "Only generate for these topics (index or name fragment, repeatable)")
	generateCmd.Flags().StringToInt("counts", nil, "Questions per level for selected topics, e.g. easy=2,medium=3")
	generateCmd.Flags().StringP("out", "o", "", "Output .docx path (default derived from the title)")
	generateCmd.Flags().String("title", "", "Worksheet title")
}
