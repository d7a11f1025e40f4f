package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		return appCtx.withStore(func(s *store.Store) error {
			events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			writeEventList(cmd.OutOrStdout(), events)
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		return appCtx.withStore(func(s *store.Store) error {
			e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}
			writeEventDetail(cmd.OutOrStdout(), e)
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return appCtx.withStore(func(s *store.Store) error {
			byPurpose, err := s.EventRepo().LLMUsageByPurpose(cmd.Context())
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			byModel, err := s.EventRepo().LLMUsageByModel(cmd.Context())
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}
			writeUsage(cmd.OutOrStdout(), byPurpose, byModel)
			return nil
		})
	},
}

func writeEventList(out io.Writer, events []store.LLMRequestEvent) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No model calls recorded.")
		return
	}
	rows := make([][]string, len(events))
	for i, e := range events {
		status := "✓"
		if !e.Success {
			status = "✗"
		}
		rows[i] = []string{
			strconv.Itoa(e.ID),
			humanize.Time(e.Timestamp),
			e.Purpose,
			truncate(e.Model, 28),
			humanize.Comma(int64(e.InputTokens)),
			humanize.Comma(int64(e.OutputTokens)),
			formatLatency(e.LatencyMs),
			status,
		}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "When", "Purpose", "Model", "In", "Out", "Latency", "OK"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func writeEventDetail(out io.Writer, e *store.LLMRequestEvent) {
	fields := [][]string{
		{"ID", strconv.Itoa(e.ID)},
		{"Time", e.Timestamp.Local().Format(time.DateTime) + " (" + humanize.Time(e.Timestamp) + ")"},
		{"Provider", e.Provider},
		{"Model", e.Model},
		{"Purpose", e.Purpose},
		{"Tokens", humanize.Comma(int64(e.InputTokens)) + " in / " + humanize.Comma(int64(e.OutputTokens)) + " out"},
		{"Latency", formatLatency(e.LatencyMs)},
		{"Success", strconv.FormatBool(e.Success)},
	}
	if e.ErrorMessage != "" {
		fields = append(fields, []string{"Error", e.ErrorMessage})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, fields, nil))

	rule := strings.Repeat("─", 60)
	for _, part := range [][2]string{{"REQUEST", e.RequestBody}, {"RESPONSE", e.ResponseBody}} {
		body := part[1]
		if body == "" {
			body = "(not captured)"
		}
		fmt.Fprintf(out, "\n%s\n%s\n%s\n%s\n", rule, part[0], rule, body)
	}
}

func writeUsage(out io.Writer, byPurpose []store.PurposeUsage, byModel []store.ModelUsage) {
	if len(byPurpose) == 0 {
		fmt.Fprintln(out, "No model usage recorded yet.")
		return
	}

	var total store.PurposeUsage
	rows := make([][]string, 0, len(byPurpose)+1)
	for _, u := range byPurpose {
		rows = append(rows, []string{
			u.Purpose,
			humanize.Comma(int64(u.Calls)),
			humanize.Comma(int64(u.InputTokens)),
			humanize.Comma(int64(u.OutputTokens)),
			humanize.Comma(int64(u.InputTokens + u.OutputTokens)),
			formatLatency(u.AvgLatencyMs),
		})
		total.Calls += u.Calls
		total.InputTokens += u.InputTokens
		total.OutputTokens += u.OutputTokens
	}
	rows = append(rows, []string{
		"TOTAL",
		humanize.Comma(int64(total.Calls)),
		humanize.Comma(int64(total.InputTokens)),
		humanize.Comma(int64(total.OutputTokens)),
		humanize.Comma(int64(total.InputTokens + total.OutputTokens)),
		"",
	})
	fmt.Fprintln(out, "Usage by purpose")
	fmt.Fprintln(out, renderTable(
		[]string{"Purpose", "Calls", "Input", "Output", "Total", "Avg Latency"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	if len(byModel) == 0 {
		return
	}
	var (
		sum     float64
		unknown []string
	)
	costs := make([][]string, 0, len(byModel)+1)
	for _, u := range byModel {
		price := "?"
		if c := llm.LookupCost(u.Model); c != nil {
			usd := c.Cost(u.InputTokens, u.OutputTokens)
			sum += usd
			price = formatCost(usd)
		} else {
			unknown = append(unknown, u.Model)
		}
		costs = append(costs, []string{
			truncate(u.Model, 32),
			humanize.Comma(int64(u.Calls)),
			humanize.Comma(int64(u.InputTokens)),
			humanize.Comma(int64(u.OutputTokens)),
			price,
		})
	}
	label := "TOTAL"
	if len(unknown) > 0 {
		label = "TOTAL (partial)"
	}
	costs = append(costs, []string{label, "", "", "", formatCost(sum)})

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Estimated cost (USD)")
	fmt.Fprintln(out, renderTable(
		[]string{"Model", "Calls", "Input", "Output", "Cost"},
		costs,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	if len(unknown) > 0 {
		fmt.Fprintf(out, "\nNo pricing for: %s\n", strings.Join(unknown, ", "))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// formatCost keeps four decimals below one cent.
func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func formatLatency(ms int64) string {
	if ms < 1000 {
		return strconv.FormatInt(ms, 10) + "ms"
	}
	return humanize.FtoaWithDigits(float64(ms)/1000, 1) + "s"
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (topic-analysis, question-gen, image-fix)")
	llmListCmd.Flags().Duration("since", 0, "Only calls newer than this, e.g. 24h")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
