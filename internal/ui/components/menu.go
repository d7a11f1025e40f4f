package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsheet/internal/ui/theme"
)

type MenuItem struct {
	Label    string
	Hint     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list of actions. Arrow keys (or j/k) move over
// disabled items, a digit jumps to that item and enter runs it.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.move(+1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

// move selects the next enabled item in direction dir, staying put at
// either end.
func (m *Menu) move(dir int) {
	for i := m.Selected + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch s := key.String(); s {
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(+1)
	case "enter":
		return m, m.run()
	default:
		if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(m.Items) && !m.Items[n-1].Disabled {
			m.Selected = n - 1
			return m, m.run()
		}
	}
	return m, nil
}

func (m Menu) run() tea.Cmd {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return nil
	}
	if it := m.Items[m.Selected]; it.Action != nil && !it.Disabled {
		return it.Action()
	}
	return nil
}

// View renders one numbered item per line. Only the selected item shows
// its hint.
func (m Menu) View() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	lines := make([]string, len(m.Items))
	for i, it := range m.Items {
		label := strconv.Itoa(i+1) + ". " + it.Label
		switch {
		case i == m.Selected:
			lines[i] = theme.Selected.Render("  ▸ " + label)
			if it.Hint != "" {
				lines[i] += "  " + theme.Hint.Render(it.Hint)
			}
		case it.Disabled:
			lines[i] = dim.Render("    " + label)
		default:
			lines[i] = theme.Unselected.Render("    " + label)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
