// Package worksheet shows the generated questions with their diagram
// status and lets the user ask for a diagram to be redrawn.
package worksheet

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathsheet/internal/screen"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/ui/components"
	"github.com/abhisek/mathsheet/internal/ui/layout"
	"github.com/abhisek/mathsheet/internal/ui/theme"
	ws "github.com/abhisek/mathsheet/internal/worksheet"
)

// item is one row of the list: a question, or one of its parts.
type item struct {
	number     int
	questionID string
	partID     string
	label      string
	content    string
	solution   string
	hasImage   bool
	pending    bool
}

func (it item) marker() string {
	switch {
	case !it.hasImage:
		return theme.Hint.Render("–")
	case it.pending:
		return theme.Waiting.Render("⏳")
	default:
		return theme.Done.Render("✓")
	}
}

func (it item) title() string {
	if it.partID == "" {
		return fmt.Sprintf("Câu %d", it.number)
	}
	return fmt.Sprintf("  %s", it.label)
}

type WorksheetScreen struct {
	ctx    context.Context
	sess   *session.Session
	items  []item
	cursor int

	editing bool
	input   components.TextInput
}

var (
	_ screen.Screen          = (*WorksheetScreen)(nil)
	_ screen.KeyHintProvider = (*WorksheetScreen)(nil)
	_ screen.InputCapturer   = (*WorksheetScreen)(nil)
)

func New(ctx context.Context, sess *session.Session) *WorksheetScreen {
	s := &WorksheetScreen{
		ctx:   ctx,
		sess:  sess,
		input: components.NewTextInput("How should the diagram change? (optional)", 500),
	}
	s.refresh()
	return s
}

func (s *WorksheetScreen) Init() tea.Cmd {
	return nil
}

func (s *WorksheetScreen) Title() string {
	return "Worksheet"
}

func (s *WorksheetScreen) CapturingInput() bool {
	return s.editing
}

func (s *WorksheetScreen) KeyHints() []layout.KeyHint {
	if s.editing {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Redraw"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Question"},
		{Key: "r", Description: "Redraw diagram"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *WorksheetScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.SessionEventMsg:
		switch msg.Event.Kind {
		case session.EventQuestionsUpdated, session.EventImageRendered, session.EventImageCleared:
			s.refresh()
		}
		return s, nil

	case tea.KeyMsg:
		if s.editing {
			return s, s.handleInputKey(msg)
		}
		return s, s.handleKey(msg.String())
	}

	if s.editing {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *WorksheetScreen) handleKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case "r":
		it, ok := s.current()
		if !ok || !it.hasImage {
			return nil
		}
		s.editing = true
		s.input.Reset()
		return s.input.Init()
	}
	return nil
}

func (s *WorksheetScreen) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.editing = false
		s.input.Reset()
		return nil
	case "enter":
		s.editing = false
		it, ok := s.current()
		if !ok {
			return nil
		}
		instruction := s.input.Value()
		s.input.Reset()
		return s.redraw(it, instruction)
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (s *WorksheetScreen) redraw(it item, instruction string) tea.Cmd {
	ctx, sess := s.ctx, s.sess
	qid, pid := it.questionID, it.partID
	return screen.Flow("Redrawing "+strings.TrimSpace(it.title()), func() screen.NoticeMsg {
		changed, err := sess.Redraw(ctx, qid, pid, instruction)
		if err != nil {
			return screen.ErrorNotice(screen.FailRedraw, err)
		}
		if !changed {
			return screen.NoticeMsg{Text: "Nothing to redraw"}
		}
		return screen.NoticeMsg{Text: "Diagram updated"}
	})
}

func (s *WorksheetScreen) current() (item, bool) {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return item{}, false
	}
	return s.items[s.cursor], true
}

func (s *WorksheetScreen) refresh() {
	s.items = flatten(s.sess.Questions())
	if s.cursor >= len(s.items) {
		s.cursor = max(0, len(s.items)-1)
	}
}

func flatten(questions []ws.Question) []item {
	var items []item
	for i, q := range questions {
		items = append(items, item{
			number:     i + 1,
			questionID: q.ID,
			label:      string(q.Difficulty),
			content:    q.Content,
			solution:   q.Solution,
			hasImage:   q.HasImage,
			pending:    q.Pending(),
		})
		for _, p := range q.Parts {
			items = append(items, item{
				number:     i + 1,
				questionID: q.ID,
				partID:     p.ID,
				label:      p.Label,
				content:    p.Content,
				solution:   p.Solution,
				hasImage:   p.HasImage,
				pending:    p.Pending(),
			})
		}
	}
	return items
}

func (s *WorksheetScreen) View(width, height int) string {
	if len(s.items) == 0 {
		return theme.Hint.Render("  No questions yet. Run GENERATE from the home menu.")
	}

	listRows := max(3, height/2)
	start, end := window(s.cursor, len(s.items), listRows)

	var b strings.Builder
	if sum := s.sess.Summary(); sum.Diagrams > 0 {
		b.WriteString(components.NewGauge("Diagrams", sum.Diagrams-sum.Pending, sum.Diagrams, min(width-2, 60)).View() + "\n\n")
	}
	for i := start; i < end; i++ {
		it := s.items[i]
		line := fmt.Sprintf("%s %s  %s", it.marker(), it.title(), layout.Truncate(oneLine(it.content), max(10, width-24)))
		if i == s.cursor {
			b.WriteString(theme.Selected.Render("▸ ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	it, _ := s.current()
	var detail strings.Builder
	if it.partID == "" {
		detail.WriteString(theme.Title.Render(fmt.Sprintf("Câu %d", it.number)) + theme.Hint.Render("  "+it.label) + "\n")
	} else {
		detail.WriteString(theme.Title.Render(fmt.Sprintf("Câu %d %s", it.number, it.label)) + "\n")
	}
	detail.WriteString(it.content)
	if it.solution != "" {
		detail.WriteString("\n\n" + theme.Hint.Render("Lời giải: "+it.solution))
	}
	switch {
	case it.hasImage && it.pending:
		detail.WriteString("\n\n" + theme.Failed.Render("Diagram not rendered. Press r to redraw."))
	case it.hasImage:
		detail.WriteString("\n\n" + theme.Done.Render("Diagram rendered"))
	}
	b.WriteString("\n" + theme.Card.Width(min(width-2, 100)).Render(detail.String()))

	if s.editing {
		b.WriteString("\n\n" + s.input.View())
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func window(cursor, n, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	start := min(max(0, cursor-rows/2), n-rows)
	return start, start + rows
}
