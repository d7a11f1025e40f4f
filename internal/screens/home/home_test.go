package home

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsheet/internal/docx"
	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/screen"
	"github.com/abhisek/mathsheet/internal/session"
)

func runFlow(t *testing.T, cmd tea.Cmd) screen.NoticeMsg {
	t.Helper()
	require.NotNil(t, cmd)
	flow, ok := cmd().(screen.FlowMsg)
	require.True(t, ok)
	return flow.Run()
}

func TestAnalyzeFlow(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`[{"id": "t1", "name": "Hàm số"}]`)})
	sess := session.New(problemgen.New(mock, nil, problemgen.DefaultConfig()))
	h := New(context.Background(), sess, Options{})

	notice := runFlow(t, h.analyze())
	assert.False(t, notice.Err)
	assert.Equal(t, "1 topics proposed", notice.Text)
	assert.Len(t, sess.Topics(), 1)
}

func TestFlowsWithoutCredential(t *testing.T) {
	sess := session.New(problemgen.New(nil, nil, problemgen.DefaultConfig()))
	h := New(context.Background(), sess, Options{})

	assert.Equal(t, screen.NoCredential, runFlow(t, h.analyze()))
	assert.Equal(t, screen.NoCredential, runFlow(t, h.generate()))
}

func TestExportWritesDocument(t *testing.T) {
	dir := t.TempDir()
	sess := session.New(problemgen.New(nil, nil, problemgen.DefaultConfig()))
	h := New(context.Background(), sess, Options{Title: "Ôn tập", OutDir: dir})

	notice := runFlow(t, h.export())
	assert.False(t, notice.Err, notice.Text)

	path := filepath.Join(dir, docx.FileName("Ôn tập"))
	assert.Equal(t, "Saved "+path, notice.Text)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestViewShowsMenu(t *testing.T) {
	sess := session.New(problemgen.New(nil, nil, problemgen.DefaultConfig()))
	h := New(context.Background(), sess, Options{})

	view := h.View(100, 40)
	for _, label := range []string{"ANALYZE", "TOPICS", "GENERATE", "WORKSHEET", "EXPORT"} {
		assert.Contains(t, view, label)
	}
}
