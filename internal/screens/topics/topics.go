// Package topics lets the user pick topics and set how many questions of
// each difficulty to generate.
package topics

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsheet/internal/screen"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/ui/layout"
	"github.com/abhisek/mathsheet/internal/ui/theme"
	"github.com/abhisek/mathsheet/internal/worksheet"
)

// TopicsScreen edits the session's topic list in place.
type TopicsScreen struct {
	sess   *session.Session
	topics []worksheet.Topic
	cursor int
	level  int
}

var (
	_ screen.Screen          = (*TopicsScreen)(nil)
	_ screen.KeyHintProvider = (*TopicsScreen)(nil)
)

func New(sess *session.Session) *TopicsScreen {
	return &TopicsScreen{sess: sess, topics: sess.Topics()}
}

func (s *TopicsScreen) Init() tea.Cmd {
	return nil
}

func (s *TopicsScreen) Title() string {
	return "Topics"
}

func (s *TopicsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Topic"},
		{Key: "Space", Description: "Select"},
		{Key: "←→", Description: "Level"},
		{Key: "+/-", Description: "Count"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *TopicsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.SessionEventMsg:
		if msg.Event.Kind == session.EventTopicsUpdated {
			s.refresh()
		}
	case tea.KeyMsg:
		s.handleKey(msg.String())
	}
	return s, nil
}

func (s *TopicsScreen) handleKey(key string) {
	levels := worksheet.Difficulties()
	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.topics)-1 {
			s.cursor++
		}
	case "left", "h":
		if s.level > 0 {
			s.level--
		}
	case "right", "l", "tab":
		if s.level < len(levels)-1 {
			s.level++
		}
	case "space", " ", "x", "enter":
		if t, ok := s.current(); ok {
			_ = s.sess.ToggleTopic(t.ID)
			s.refresh()
		}
	case "+", "=":
		s.bump(levels[s.level], 1)
	case "-", "_":
		s.bump(levels[s.level], -1)
	}
}

func (s *TopicsScreen) bump(d worksheet.Difficulty, delta int) {
	t, ok := s.current()
	if !ok {
		return
	}
	_ = s.sess.SetCount(t.ID, d, t.Counts[d]+delta)
	s.refresh()
}

func (s *TopicsScreen) current() (worksheet.Topic, bool) {
	if s.cursor < 0 || s.cursor >= len(s.topics) {
		return worksheet.Topic{}, false
	}
	return s.topics[s.cursor], true
}

func (s *TopicsScreen) refresh() {
	s.topics = s.sess.Topics()
	if s.cursor >= len(s.topics) {
		s.cursor = max(0, len(s.topics)-1)
	}
}

func (s *TopicsScreen) View(width, height int) string {
	if len(s.topics) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Hint.Render("No topics yet. Run ANALYZE from the home menu."))
	}

	levels := worksheet.Difficulties()
	nameWidth := max(16, width-4-len(levels)*14-6)

	var b strings.Builder
	header := fmt.Sprintf("    %-*s", nameWidth, "Topic")
	for i, d := range levels {
		cell := fmt.Sprintf("%12s", string(d))
		if i == s.level {
			cell = theme.Selected.Render(cell)
		} else {
			cell = theme.Hint.Render(cell)
		}
		header += "  " + cell
	}
	b.WriteString(header + "\n")

	start, end := window(s.cursor, len(s.topics), max(1, height-6))
	for i := start; i < end; i++ {
		t := s.topics[i]
		box := "[ ]"
		if t.Selected {
			box = theme.Done.Render("[x]")
		}
		name := fmt.Sprintf("%-*s", nameWidth, layout.Truncate(t.Name, nameWidth))
		line := " " + box + " " + name
		for j, d := range levels {
			cell := fmt.Sprintf("%12d", t.Counts[d])
			if i == s.cursor && j == s.level {
				cell = theme.Selected.Render(cell)
			}
			line += "  " + cell
		}
		if i == s.cursor {
			line = theme.Selected.Render("▸") + line[1:]
		}
		b.WriteString(line + "\n")
	}

	if t, ok := s.current(); ok && t.Description != "" {
		b.WriteString("\n" + theme.Card.Width(min(width-2, 100)).Render(t.Description))
	}

	requested := 0
	for _, t := range s.topics {
		if t.Selected {
			requested += t.Counts.Total()
		}
	}
	b.WriteString("\n" + theme.Hint.Render(fmt.Sprintf("%d questions requested", requested)))
	return b.String()
}

// window returns the visible slice bounds that keep cursor on screen.
func window(cursor, n, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}
