// Package home is the main menu: it runs the analyze, generate and export
// flows and opens the topic and worksheet screens.
package home

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathsheet/internal/docx"
	"github.com/abhisek/mathsheet/internal/router"
	"github.com/abhisek/mathsheet/internal/screen"
	"github.com/abhisek/mathsheet/internal/screens/topics"
	worksheetscreen "github.com/abhisek/mathsheet/internal/screens/worksheet"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/ui/components"
)

// Options are the export defaults.
type Options struct {
	Title  string
	Footer string
	OutDir string
}

// HomeScreen is the main menu of the application.
type HomeScreen struct {
	ctx  context.Context
	sess *session.Session
	opts Options
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(ctx context.Context, sess *session.Session, opts Options) *HomeScreen {
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = docx.DefaultTitle
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	h := &HomeScreen{ctx: ctx, sess: sess, opts: opts}

	h.menu = components.NewMenu([]components.MenuItem{
		{Label: "ANALYZE", Hint: "propose topics from the loaded files", Action: h.analyze},
		{Label: "TOPICS", Hint: "choose topics and question counts", Action: func() tea.Cmd {
			return push(topics.New(sess))
		}},
		{Label: "GENERATE", Hint: "write questions and draw diagrams", Action: h.generate},
		{Label: "WORKSHEET", Hint: "review questions and redraw diagrams", Action: func() tea.Cmd {
			return push(worksheetscreen.New(ctx, sess))
		}},
		{Label: "EXPORT", Hint: "save the worksheet as .docx", Action: h.export},
		{Label: "QUIT", Action: func() tea.Cmd { return tea.Quit }},
	})
	return h
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) analyze() tea.Cmd {
	return screen.Flow("Analyzing documents", func() screen.NoticeMsg {
		found, err := h.sess.Analyze(h.ctx)
		if err != nil {
			return screen.ErrorNotice(screen.FailAnalyze, err)
		}
		return screen.NoticeMsg{Text: fmt.Sprintf("%d topics proposed", len(found))}
	})
}

func (h *HomeScreen) generate() tea.Cmd {
	return screen.Flow("Generating questions", func() screen.NoticeMsg {
		questions, err := h.sess.Generate(h.ctx)
		if err != nil {
			return screen.ErrorNotice(screen.FailGenerate, err)
		}
		if len(questions) == 0 {
			return screen.NoticeMsg{Text: "Nothing selected: choose a topic first", Err: true}
		}
		return screen.NoticeMsg{Text: fmt.Sprintf("%d questions generated", len(questions))}
	})
}

func (h *HomeScreen) export() tea.Cmd {
	return screen.Flow("Exporting", func() screen.NoticeMsg {
		var buf bytes.Buffer
		if err := h.sess.Export(&buf, h.opts.Title, docx.WithFooter(h.opts.Footer)); err != nil {
			return screen.NoticeMsg{Text: "Export failed: " + err.Error(), Err: true}
		}
		path := filepath.Join(h.opts.OutDir, docx.FileName(h.opts.Title))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return screen.NoticeMsg{Text: "Export failed: " + err.Error(), Err: true}
		}
		return screen.NoticeMsg{Text: "Saved " + path}
	})
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := contentWidth(width)
	sections := []string{
		renderTitle(h.opts.Title, cw),
		renderStatsBar(h.sess.Summary(), h.sess.Settings(), cw),
		renderMenu(h.menu, cw),
	}
	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
