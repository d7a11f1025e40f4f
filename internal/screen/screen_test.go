package screen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/session"
)

func TestErrorNotice(t *testing.T) {
	tests := []struct {
		name string
		kind int
		err  error
		want string
	}{
		{"no credential", FailGenerate, fmt.Errorf("wrap: %w", problemgen.ErrNoCredential), "Vui lòng nhập API Key"},
		{"analyze", FailAnalyze, errors.New("quota"), "Lỗi phân tích: quota"},
		{"generate", FailGenerate, errors.New("quota"), "Lỗi tạo bài tập: quota"},
		{"redraw", FailRedraw, errors.New("quota"), "Lỗi vẽ lại: quota"},
		{"render failed", FailRedraw, session.ErrRenderFailed, "Lỗi vẽ lại: Không vẽ được hình"},
		{"rejected key", FailAnalyze, fmt.Errorf("topic analysis: %w", &llm.ErrAuth{Status: 401, Err: errors.New("denied")}), "API Key không hợp lệ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorNotice(tt.kind, tt.err)
			if got.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Text, tt.want)
			}
			if !got.Err {
				t.Error("expected Err to be set")
			}
		})
	}
}

func TestFlow(t *testing.T) {
	cmd := Flow("Working", func() NoticeMsg { return NoticeMsg{Text: "done"} })
	msg, ok := cmd().(FlowMsg)
	if !ok {
		t.Fatalf("expected FlowMsg, got %T", cmd())
	}
	if msg.Label != "Working" || msg.Run().Text != "done" {
		t.Errorf("unexpected flow %+v", msg)
	}
}
