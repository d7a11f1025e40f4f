package llm

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsheet/internal/store"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	var buf bytes.Buffer
	mock := NewMockProvider(MockResponse{
		Content: []byte(`[{"name":"Hình học"}]`),
		Usage:   Usage{InputTokens: 100, OutputTokens: 20},
	})
	p := WithLogging(mock, "gemini", repo, slog.New(slog.NewTextHandler(&buf, nil)))

	ctx := WithPurpose(context.Background(), "topic-analysis")
	_, err := p.Generate(ctx, Request{
		System:   "Bạn là giáo viên toán.",
		Messages: []Message{{Role: RoleUser, Content: "Phân tích"}},
		Model:    "pro",
		JSON:     true,
	})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	e := repo.events[0]
	assert.Equal(t, "gemini", e.Provider)
	assert.Equal(t, "topic-analysis", e.Purpose)
	assert.Equal(t, "pro", e.Model)
	assert.True(t, e.Success)
	assert.Equal(t, 100, e.InputTokens)
	assert.Equal(t, 20, e.OutputTokens)
	assert.Equal(t, `[{"name":"Hình học"}]`, e.ResponseBody)
	assert.Contains(t, e.RequestBody, `model="pro" json=true`)
	assert.Contains(t, e.RequestBody, "[system]\nBạn là giáo viên toán.")
	assert.Contains(t, e.RequestBody, "[user]\nPhân tích")

	assert.Contains(t, buf.String(), "purpose=topic-analysis")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestLogging_RecordsFailure(t *testing.T) {
	repo := &recordingRepo{}
	var buf bytes.Buffer
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	p := WithLogging(mock, "gemini", repo, slog.New(slog.NewTextHandler(&buf, nil)))

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].Success)
	assert.Contains(t, repo.events[0].ErrorMessage, "down")
	assert.Equal(t, "unknown", repo.events[0].Purpose)
	assert.Equal(t, "mock", repo.events[0].Model)
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestLogging_RepoErrorDoesNotFailRequest(t *testing.T) {
	repo := &recordingRepo{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockText(`{}`)), "mock", repo, quietLogger())

	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
}

func TestLogging_NilRepoAndLogger(t *testing.T) {
	p := WithLogging(NewMockProvider(MockText(`{}`)), "mock", nil, nil)

	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

func TestTranscriptIncludesSchema(t *testing.T) {
	out := transcript(Request{Schema: &Schema{Name: "topics", Definition: map[string]any{"type": "array"}}})
	assert.Equal(t, "[schema: topics]\n{\"type\":\"array\"}\n", out)
}
