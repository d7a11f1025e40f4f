// Package layout draws the chrome around a screen: header bar, status
// line and key-hint footer.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsheet/internal/ui/theme"
)

// Smallest terminal the worksheet view fits in.
const (
	MinWidth  = 80
	MinHeight = 24
)

type KeyHint struct {
	Key         string
	Description string
}

var bar = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(theme.Border)

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("Terminal is %d x %d.\n\nResize it to at least %d x %d.", width, height, MinWidth, MinHeight)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Align(lipgloss.Center).Render(msg))
}

// RenderHeader puts the app name on the left, the screen title centred and
// the status on the right. Crowded bars keep one space between parts.
func RenderHeader(title, status string, width int) string {
	name := theme.Title.Render("  mathsheet")
	mid := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(status)

	inner := max(width-4, 0)
	gapL := max((inner-lipgloss.Width(mid))/2-lipgloss.Width(name), 1)
	gapR := max(inner-lipgloss.Width(name)-gapL-lipgloss.Width(mid)-lipgloss.Width(right), 1)

	line := name + strings.Repeat(" ", gapL) + mid + strings.Repeat(" ", gapR) + right
	return bar.Width(width).Render(line)
}

// RenderStatusLine shows the last notice: busy in amber, errors in red,
// everything else in green.
func RenderStatusLine(text string, isErr, busy bool, width int) string {
	style := lipgloss.NewStyle().Width(width).Padding(0, 2)
	if text != "" {
		switch {
		case busy:
			style = style.Foreground(theme.Accent)
		case isErr:
			style = style.Foreground(theme.Error).Bold(true)
		default:
			style = style.Foreground(theme.Success)
		}
	}
	return style.Render(text)
}

func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString("  ")
	for i, h := range hints {
		if i > 0 {
			b.WriteString("   ")
		}
		b.WriteString(key.Render(h.Key) + " " + desc.Render(h.Description))
	}
	return bar.Width(width).Render(b.String())
}

// RenderFrame stacks the parts and gives the content whatever height is
// left, clipping it when it is taller.
func RenderFrame(header, content, status, footer string, width, height int) string {
	rest := max(height-lipgloss.Height(header)-lipgloss.Height(status)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(rest).MaxHeight(rest).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, footer)
}

// Truncate collapses whitespace and cuts s to at most n display cells,
// ending with an ellipsis when it had to cut.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > n {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
