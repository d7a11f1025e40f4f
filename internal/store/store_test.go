package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func appendAll(t *testing.T, repo *LLMEventRepo, events ...LLMRequestEventData) {
	t.Helper()
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(context.Background(), e))
	}
}

func TestPragmasApplied(t *testing.T) {
	db := openTestStore(t).DB()
	require.NotNil(t, db)

	// journal_mode reports "memory" for in-memory databases.
	for pragma, want := range map[string]string{"foreign_keys": "1", "synchronous": "1", "busy_timeout": "5000"} {
		var got string
		require.NoError(t, db.QueryRow("PRAGMA "+pragma).Scan(&got), pragma)
		assert.Equal(t, want, got, pragma)
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mathsheet.db")
	require.NoError(t, EnsureDir(path))
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CredentialRepo().Save(ctx, "GEMINI_API_KEY", "k1"))
	require.NoError(t, s.Close())

	// Reopening migrates again and keeps existing rows.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.CredentialRepo().Load(ctx, "GEMINI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "k1", got)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestCredentialSlots(t *testing.T) {
	repo := openTestStore(t).CredentialRepo()
	ctx := context.Background()

	got, err := repo.Load(ctx, "GEMINI_API_KEY")
	require.NoError(t, err)
	assert.Empty(t, got, "empty slot")

	require.NoError(t, repo.Save(ctx, "GEMINI_API_KEY", "first"))
	require.NoError(t, repo.Save(ctx, "GEMINI_API_KEY", "second"))
	require.NoError(t, repo.Save(ctx, "OPENAI_API_KEY", "other"))

	got, _ = repo.Load(ctx, "GEMINI_API_KEY")
	assert.Equal(t, "second", got, "save overwrites")

	require.NoError(t, repo.Clear(ctx, "GEMINI_API_KEY"))
	got, _ = repo.Load(ctx, "GEMINI_API_KEY")
	assert.Empty(t, got)

	got, _ = repo.Load(ctx, "OPENAI_API_KEY")
	assert.Equal(t, "other", got, "clear leaves other slots alone")

	assert.NoError(t, repo.Clear(ctx, "GEMINI_API_KEY"), "clearing an empty slot")
}

func TestLLMEventAppendAndQuery(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()
	appendAll(t, repo,
		LLMRequestEventData{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "topic-analysis", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "req-1", ResponseBody: "resp-1"},
		LLMRequestEventData{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "question-gen", InputTokens: 300, OutputTokens: 900, LatencyMs: 400, Success: true},
		LLMRequestEventData{Provider: "gemini", Model: "gemini-3-pro-preview", Purpose: "question-gen", InputTokens: 100, OutputTokens: 100, LatencyMs: 600, ErrorMessage: "provider unavailable"},
	)

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	newest, oldest := all[0], all[2]
	assert.Equal(t, "gemini-3-pro-preview", newest.Model)
	assert.False(t, newest.Success)
	assert.Equal(t, "provider unavailable", newest.ErrorMessage)
	assert.Equal(t, "req-1", oldest.RequestBody)
	assert.Equal(t, "resp-1", oldest.ResponseBody)
	assert.WithinDuration(t, time.Now(), oldest.Timestamp, time.Minute)

	tests := []struct {
		name string
		opts QueryOpts
		want int
	}{
		{"limit", QueryOpts{Limit: 1}, 1},
		{"purpose", QueryOpts{Purpose: "question-gen"}, 2},
		{"from the future", QueryOpts{From: time.Now().Add(time.Hour)}, 0},
		{"until the past", QueryOpts{To: time.Now().Add(-time.Hour)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryLLMEvents(ctx, tt.opts)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestGetLLMEvent(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()
	appendAll(t, repo, LLMRequestEventData{Provider: "mock", Model: "m", Purpose: "image-fix", Success: true})

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	e, err := repo.GetLLMEvent(ctx, all[0].ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "image-fix", e.Purpose)

	missing, err := repo.GetLLMEvent(ctx, all[0].ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLLMUsageAggregates(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()
	appendAll(t, repo,
		LLMRequestEventData{Provider: "gemini", Model: "a", Purpose: "question-gen", InputTokens: 10, OutputTokens: 20, LatencyMs: 100, Success: true},
		LLMRequestEventData{Provider: "gemini", Model: "b", Purpose: "question-gen", InputTokens: 30, OutputTokens: 40, LatencyMs: 300, Success: true},
		LLMRequestEventData{Provider: "gemini", Model: "a", Purpose: "topic-analysis", InputTokens: 5, OutputTokens: 5, LatencyMs: 50, Success: true},
	)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, PurposeUsage{Purpose: "question-gen", Calls: 2, InputTokens: 40, OutputTokens: 60, AvgLatencyMs: 200}, byPurpose[0])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, ModelUsage{Model: "a", Calls: 2, InputTokens: 15, OutputTokens: 25}, byModel[0])
}

func TestDefaultDBPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		want := filepath.Join(t.TempDir(), "sub", "x.db")
		t.Setenv("MATHSHEET_DB", want)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.DirExists(t, filepath.Dir(want))
	})
	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("MATHSHEET_DB", "")
		dir := t.TempDir()
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "mathsheet", "mathsheet.db"), got)
	})
}
