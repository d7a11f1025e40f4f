package home

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/ui/components"
	"github.com/abhisek/mathsheet/internal/ui/theme"
)

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 64 {
		w = 64
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderTitle(title string, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(theme.Title.Render(title) + "\n" + theme.Hint.Render("worksheet builder"))
}

// renderStatsBar shows what the session holds in a box matching content width.
func renderStatsBar(sum session.Summary, settings session.Settings, cw int) string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim)
	value := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)

	line := fmt.Sprintf("%s %s   %s %s   %s %s",
		value.Render(fmt.Sprint(sum.Files)), label.Render("files"),
		value.Render(fmt.Sprintf("%d/%d", sum.SelectedTopics, sum.Topics)), label.Render("topics"),
		value.Render(fmt.Sprint(sum.Questions)), label.Render("questions"),
	)
	if sum.Diagrams > 0 {
		line += fmt.Sprintf("   %s %s",
			value.Render(fmt.Sprintf("%d/%d", sum.Diagrams-sum.Pending, sum.Diagrams)), label.Render("diagrams"))
	}
	if settings.ManualTopic != "" {
		line += "\n" + label.Render("manual topic: ") + settings.ManualTopic
	}
	if settings.Model != "" {
		line += "\n" + label.Render("model: ") + settings.Model
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(line)
}

func renderMenu(menu components.Menu, cw int) string {
	return lipgloss.NewStyle().Width(cw).Render(menu.View())
}

// renderFrame centers content in the available area.
func renderFrame(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
