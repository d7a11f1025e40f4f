package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claudeAgainst(stub *vendorStub) *AnthropicProvider {
	return newAnthropicProvider("pro", option.WithAPIKey("test-key"), option.WithBaseURL(stub.URL))
}

func claudeError(kind, msg string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": msg}}
}

func TestAnthropicProvider_Generate(t *testing.T) {
	stub := newVendorStub(t, http.StatusOK,
		claudeMessage("claude-sonnet-4-20250514", `[{"id":"t1","name":"Phương trình bậc hai"}]`, "end_turn"))
	p := claudeAgainst(stub)

	resp, err := p.Generate(context.Background(), Request{
		System:    "Bạn là giáo viên toán.",
		Messages:  []Message{{Role: RoleUser, Content: "Đề xuất các dạng bài."}},
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"t1","name":"Phương trình bậc hai"}]`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30, TotalTokens: 80}, resp.Usage)
	assert.Equal(t, "end", resp.StopReason)

	sent := stub.lastBody()
	assert.Equal(t, "claude-sonnet-4-20250514", sent["model"])
	assert.EqualValues(t, 256, sent["max_tokens"])
	require.NotEmpty(t, sent["system"])
}

func TestAnthropicProvider_FlashOverride(t *testing.T) {
	stub := newVendorStub(t, http.StatusOK, claudeMessage("claude-haiku-4-5-20251001", `[]`, "end_turn"))

	resp, err := claudeAgainst(stub).Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Trả về JSON."}},
		Model:     "flash",
		MaxTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5-20251001", stub.lastBody()["model"])
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)
}

func TestAnthropicProvider_TruncatedReply(t *testing.T) {
	stub := newVendorStub(t, http.StatusOK, claudeMessage("claude-sonnet-4-20250514", `[{"id":"t1"`, "max_tokens"))

	resp, err := claudeAgainst(stub).Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Liệt kê các dạng bài."}},
		MaxTokens: 8,
	})
	require.NoError(t, err, "plain text replies are returned even when cut off")
	assert.Equal(t, "max_tokens", resp.StopReason)
}

func TestAnthropicProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   string
		check  func(t *testing.T, err error)
	}{
		{"rejected key", http.StatusUnauthorized, "authentication_error", func(t *testing.T, err error) {
			var auth *ErrAuth
			require.ErrorAs(t, err, &auth)
			assert.Equal(t, http.StatusUnauthorized, auth.Status)
		}},
		{"rate limited", http.StatusTooManyRequests, "rate_limit_error", func(t *testing.T, err error) {
			var rl *ErrRateLimit
			assert.ErrorAs(t, err, &rl)
		}},
		{"server error", http.StatusInternalServerError, "api_error", func(t *testing.T, err error) {
			var down *ErrProviderUnavailable
			assert.ErrorAs(t, err, &down)
			assert.False(t, IsAuth(err))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newVendorStub(t, tt.status, claudeError(tt.kind, "nope"))
			_, err := claudeAgainst(stub).Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAnthropicProvider_EmptyReply(t *testing.T) {
	reply := claudeMessage("claude-sonnet-4-20250514", "", "end_turn")
	reply["content"] = []map[string]any{}
	stub := newVendorStub(t, http.StatusOK, reply)

	_, err := claudeAgainst(stub).Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	var invalid *ErrInvalidResponse
	assert.True(t, errors.As(err, &invalid))
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		models map[string]string
		in     string
		want   string
	}{
		{anthropicModels, "flash", "claude-haiku-4-5-20251001"},
		{anthropicModels, "pro", "claude-sonnet-4-20250514"},
		{anthropicModels, "claude-opus-4-1", "claude-opus-4-1"},
		{openaiModels, "flash", "gpt-4o-mini"},
		{openaiModels, "", ""},
		{geminiModels, "flash", "gemini-2.5-flash"},
		{geminiModels, "pro", "gemini-3-pro-preview"},
		{geminiModels, "gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveModel(tt.in, tt.models), tt.in)
	}
}
