package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/worksheet"
)

// flowError adds a remedy to credential failures from a session flow.
func flowError(rt *runtime, action string, err error) error {
	switch {
	case errors.Is(err, problemgen.ErrNoCredential):
		return fmt.Errorf("no API key for %s: run `mathsheet key set` or export %s", rt.backend.Provider(), rt.backend.CredentialKey())
	case llm.IsAuth(err):
		return fmt.Errorf("%s: the %s API key was rejected, run `mathsheet key set` with a valid key: %w", action, rt.backend.Provider(), err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func addFileFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("dist", nil, "Curriculum distribution file (repeatable)")
	cmd.Flags().StringSlice("bank", nil, "Question bank file (repeatable)")
	cmd.Flags().String("manual-topic", "", "Extra topic typed by hand")
}

// loadFiles reads the --dist and --bank files into the session and applies
// --manual-topic when the command defines it.
func loadFiles(cmd *cobra.Command, sess *session.Session) error {
	for _, src := range []struct {
		flag string
		cat  worksheet.Category
	}{
		{"dist", worksheet.CategoryDistribution},
		{"bank", worksheet.CategoryBank},
	} {
		paths, _ := cmd.Flags().GetStringSlice(src.flag)
		for _, p := range paths {
			f, err := worksheet.ReadPath(p, src.cat)
			if err != nil {
				return err
			}
			sess.AddFiles(f)
		}
	}
	if cmd.Flags().Lookup("manual-topic") != nil {
		manual, _ := cmd.Flags().GetString("manual-topic")
		sess.SetManualTopic(manual)
	}
	return nil
}

func describeFiles(out io.Writer, files []worksheet.FileData) {
	if len(files) == 0 {
		return
	}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Name, string(f.Category), humanize.Bytes(uint64(len(f.Content)))})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "Category", "Size"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
}

func topicsTable(topics []worksheet.Topic) string {
	headers := []string{"#", "Topic", "Selected"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft}
	for _, d := range worksheet.Difficulties() {
		headers = append(headers, string(d))
		aligns = append(aligns, alignRight)
	}

	rows := make([][]string, 0, len(topics))
	for i, t := range topics {
		sel := "no"
		if t.Selected {
			sel = "yes"
		}
		row := []string{strconv.Itoa(i + 1), t.Name, sel}
		for _, d := range worksheet.Difficulties() {
			row = append(row, strconv.Itoa(t.Counts[d]))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

// applyTopicFilter keeps only the topics named by filters selected. A
// filter is a 1-based index or a case-insensitive substring of the name.
func applyTopicFilter(sess *session.Session, filters []string) error {
	if len(filters) == 0 {
		return nil
	}
	topics := sess.Topics()
	keep := make(map[string]bool, len(topics))
	for _, f := range filters {
		f = strings.TrimSpace(f)
		matched := false
		if n, err := strconv.Atoi(f); err == nil {
			if n >= 1 && n <= len(topics) {
				keep[topics[n-1].ID] = true
				matched = true
			}
		} else {
			for _, t := range topics {
				if strings.Contains(strings.ToLower(t.Name), strings.ToLower(f)) {
					keep[t.ID] = true
					matched = true
				}
			}
		}
		if !matched {
			return fmt.Errorf("no topic matches %q", f)
		}
	}
	for _, t := range topics {
		if err := sess.SetSelected(t.ID, keep[t.ID]); err != nil {
			return err
		}
	}
	return nil
}

// applyCounts sets the given per-level counts on every selected topic.
func applyCounts(sess *session.Session, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	levels := make(map[worksheet.Difficulty]int, len(counts))
	for key, n := range counts {
		d, err := worksheet.ParseDifficulty(key)
		if err != nil {
			return err
		}
		levels[d] = n
	}
	for _, t := range sess.Topics() {
		if !t.Selected {
			continue
		}
		for d, n := range levels {
			if err := sess.SetCount(t.ID, d, n); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
)

func printSummary(out io.Writer, sum session.Summary, path string) {
	colorize := shouldColorize(out)
	paint := func(s lipgloss.Style, v string) string {
		if !colorize {
			return v
		}
		return s.Render(v)
	}

	fmt.Fprintf(out, "%s %s\n", paint(okStyle, "✓"), path)
	fmt.Fprintf(out, "  %s questions from %s topics (%s requested)\n",
		humanize.Comma(int64(sum.Questions)),
		humanize.Comma(int64(sum.SelectedTopics)),
		humanize.Comma(int64(sum.Requested)))
	if sum.Diagrams == 0 {
		fmt.Fprintln(out, paint(dimStyle, "  no diagrams"))
		return
	}
	rendered := sum.Diagrams - sum.Pending
	fmt.Fprintf(out, "  %d/%d diagrams rendered\n", rendered, sum.Diagrams)
	if sum.Pending > 0 {
		fmt.Fprintln(out, paint(warnStyle, fmt.Sprintf("  %d diagrams failed to render", sum.Pending)))
	}
}
