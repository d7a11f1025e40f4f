package screen

import (
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// InputCapturer is implemented by screens that own the keyboard while a
// text field is open. Esc is then delivered to the screen instead of
// popping it.
type InputCapturer interface {
	CapturingInput() bool
}

// SessionEventMsg carries a session event into the program.
type SessionEventMsg struct {
	Event session.Event
}

// FlowMsg asks the app to run a long session call off the UI loop. Only
// one flow runs at a time; Label is shown while it does.
type FlowMsg struct {
	Label string
	Run   func() NoticeMsg
}

// NoticeMsg reports the outcome of a flow on the status line.
type NoticeMsg struct {
	Text string
	Err  bool
}

// Flow wraps a flow request as a command.
func Flow(label string, run func() NoticeMsg) tea.Cmd {
	return func() tea.Msg {
		return FlowMsg{Label: label, Run: run}
	}
}

const (
	msgNoCredential  = "Vui lòng nhập API Key"
	msgBadCredential = "API Key không hợp lệ"
	prefixAnalyze    = "Lỗi phân tích: "
	prefixGenerate   = "Lỗi tạo bài tập: "
	prefixRedraw     = "Lỗi vẽ lại: "
	msgRenderFailure = "Không vẽ được hình"
)

// NoCredential is shown while no API key is configured.
var NoCredential = NoticeMsg{Text: msgNoCredential, Err: true}

// Failure kinds for ErrorNotice.
const (
	FailAnalyze = iota
	FailGenerate
	FailRedraw
)

// ErrorNotice turns a flow error into the status line text.
func ErrorNotice(kind int, err error) NoticeMsg {
	if errors.Is(err, problemgen.ErrNoCredential) {
		return NoCredential
	}
	if llm.IsAuth(err) {
		return NoticeMsg{Text: msgBadCredential, Err: true}
	}
	if errors.Is(err, session.ErrRenderFailed) {
		return NoticeMsg{Text: prefixRedraw + msgRenderFailure, Err: true}
	}
	prefix := prefixGenerate
	switch kind {
	case FailAnalyze:
		prefix = prefixAnalyze
	case FailRedraw:
		prefix = prefixRedraw
	}
	return NoticeMsg{Text: prefix + err.Error(), Err: true}
}
