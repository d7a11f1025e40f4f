package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsheet/internal/ui/theme"
)

// Gauge is a horizontal bar showing how many of Total items are Done.
type Gauge struct {
	Label string
	Done  int
	Total int
	Width int
}

func NewGauge(label string, done, total, width int) Gauge {
	return Gauge{Label: label, Done: done, Total: total, Width: width}
}

// View renders the gauge. A zero Total renders an empty bar.
func (g Gauge) View() string {
	var out string
	if g.Label != "" {
		out = lipgloss.NewStyle().Foreground(theme.Text).Render(g.Label) + "  "
	}
	count := fmt.Sprintf("  %d/%d", g.Done, g.Total)

	barWidth := max(4, g.Width-lipgloss.Width(out)-len(count))
	filled := 0
	if g.Total > 0 {
		filled = min(barWidth, max(0, barWidth*g.Done/g.Total))
	}

	fill := theme.Secondary
	if g.Total > 0 && g.Done == g.Total {
		fill = theme.Success
	}
	out += lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled))
	out += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	out += lipgloss.NewStyle().Foreground(theme.TextDim).Render(count)
	return out
}
