package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsheet/internal/router"
	"github.com/abhisek/mathsheet/internal/screen"
	"github.com/abhisek/mathsheet/internal/screens/home"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/ui/layout"
)

// Options holds the dependencies of the terminal UI.
type Options struct {
	Context context.Context
	Session *session.Session

	// Title and Footer are the export defaults; OutDir is where exported
	// documents are written.
	Title  string
	Footer string
	OutDir string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	sess   *session.Session
	width  int
	height int

	busy   string
	notice screen.NoticeMsg
}

func newAppModel(opts Options) AppModel {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	homeScreen := home.New(opts.Context, opts.Session, home.Options{
		Title:  opts.Title,
		Footer: opts.Footer,
		OutDir: opts.OutDir,
	})
	notice := screen.NoticeMsg{}
	if !opts.Session.Ready() {
		notice = screen.NoCredential
	}
	return AppModel{
		router: router.New(homeScreen),
		sess:   opts.Session,
		notice: notice,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.InputCapturer); ok && c.CapturingInput() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case screen.FlowMsg:
		if m.busy != "" {
			m.notice = screen.NoticeMsg{Text: fmt.Sprintf("Busy: %s", m.busy), Err: true}
			return m, nil
		}
		m.busy = msg.Label
		m.notice = screen.NoticeMsg{}
		run := msg.Run
		return m, func() tea.Msg { return run() }

	case screen.NoticeMsg:
		m.busy = ""
		m.notice = msg
		return m, m.router.Broadcast(msg)

	case screen.SessionEventMsg:
		return m, m.router.Broadcast(msg)
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	switch {
	case m.width == 0 || m.height == 0:
		return v
	case layout.IsTooSmall(m.width, m.height):
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(active.Title(), headerStatus(m.sess.Summary()), m.width)
	status := layout.RenderStatusLine(m.notice.Text, m.notice.Err, false, m.width)
	if m.busy != "" {
		status = layout.RenderStatusLine("⏳ "+m.busy+"…", false, true, m.width)
	}
	footer := layout.RenderFooter(m.keyHints(active), m.width)

	room := max(m.height-lipgloss.Height(header)-lipgloss.Height(status)-lipgloss.Height(footer), 0)
	v.SetContent(layout.RenderFrame(header, m.router.View(m.width, room), status, footer, m.width, m.height))
	return v
}

var (
	homeHints = []layout.KeyHint{
		{Key: "↑↓", Description: "Move"},
		{Key: "1-6", Description: "Jump"},
		{Key: "Enter", Description: "Run"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	backHints = []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
)

// keyHints prefers the hints of the active screen.
func (m AppModel) keyHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		if hints := p.KeyHints(); len(hints) > 0 {
			return hints
		}
	}
	if m.router.Depth() > 1 {
		return backHints
	}
	return homeHints
}

func headerStatus(sum session.Summary) string {
	if sum.Questions == 0 {
		return fmt.Sprintf("%d files · %d topics", sum.Files, sum.Topics)
	}
	return fmt.Sprintf("%d questions · %d/%d diagrams", sum.Questions, sum.Diagrams-sum.Pending, sum.Diagrams)
}

// Run starts the Bubble Tea program and forwards session events into it
// until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	unsubscribe := opts.Session.Subscribe(func(ev session.Event) {
		p.Send(screen.SessionEventMsg{Event: ev})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}
