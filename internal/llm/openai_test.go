package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gptAgainst(t *testing.T, stub *vendorStub) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "flash", BaseURL: stub.URL + "/v1"})
	require.NoError(t, err)
	return p
}

func TestOpenAIProvider_Generate(t *testing.T) {
	stub := newVendorStub(t, http.StatusOK,
		chatCompletion("gpt-4o-mini", `{"question":"Giải x^2 - 5x + 6 = 0","answer":"x = 2, x = 3"}`, "stop"))

	resp, err := gptAgainst(t, stub).Generate(context.Background(), Request{
		System:    "Bạn là giáo viên toán.",
		Messages:  []Message{{Role: RoleUser, Content: "Sinh một câu hỏi."}},
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, Usage{InputTokens: 40, OutputTokens: 25, TotalTokens: 65}, resp.Usage)
	assert.Equal(t, "end", resp.StopReason)
	assert.Contains(t, string(resp.Content), "x = 2")

	sent := stub.lastBody()
	assert.Equal(t, "gpt-4o-mini", sent["model"])
	msgs, ok := sent["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Nil(t, sent["response_format"])
}

func TestOpenAIProvider_ResponseFormat(t *testing.T) {
	schema := &Schema{Name: "openai-any-array", Definition: map[string]any{"type": "array"}}
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"schema", Request{Schema: schema}, "json_schema"},
		{"bare json", Request{JSON: true}, "json_object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newVendorStub(t, http.StatusOK, chatCompletion("gpt-4o", `[]`, "stop"))
			tt.req.Messages = []Message{{Role: RoleUser, Content: "Trả về JSON."}}
			tt.req.Model = "pro"

			resp, err := gptAgainst(t, stub).Generate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "[]", string(resp.Content))

			sent := stub.lastBody()
			assert.Equal(t, "gpt-4o", sent["model"])
			format, ok := sent["response_format"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.want, format["type"])
		})
	}
}

func TestOpenAIProvider_TruncatedStructuredReply(t *testing.T) {
	stub := newVendorStub(t, http.StatusOK, chatCompletion("gpt-4o-mini", `[{"id":`, "length"))

	_, err := gptAgainst(t, stub).Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "Liệt kê các dạng bài."}},
		Schema:   &Schema{Name: "truncated-topics", Definition: map[string]any{"type": "array"}},
	})
	var cut *ErrMaxTokensExceeded
	require.ErrorAs(t, err, &cut)
	assert.Equal(t, `[{"id":`, string(cut.Content))
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"rejected key", http.StatusUnauthorized, func(t *testing.T, err error) {
			var auth *ErrAuth
			require.ErrorAs(t, err, &auth)
			assert.Equal(t, http.StatusUnauthorized, auth.Status)
		}},
		{"forbidden", http.StatusForbidden, func(t *testing.T, err error) {
			assert.True(t, IsAuth(err))
		}},
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rl *ErrRateLimit
			assert.ErrorAs(t, err, &rl)
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			var down *ErrProviderUnavailable
			assert.ErrorAs(t, err, &down)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newVendorStub(t, tt.status, map[string]any{
				"error": map[string]any{"type": "invalid_request_error", "message": "nope"},
			})
			_, err := gptAgainst(t, stub).Generate(context.Background(), Request{
				Messages: []Message{{Role: RoleUser, Content: "test"}},
			})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	reply := chatCompletion("gpt-4o-mini", "", "stop")
	reply["choices"] = []map[string]any{}
	stub := newVendorStub(t, http.StatusOK, reply)

	_, err := gptAgainst(t, stub).Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "test"}},
	})
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestOpenAIProvider_TierNames(t *testing.T) {
	for tier, want := range map[string]string{"flash": "gpt-4o-mini", "pro": "gpt-4o", "o3-mini": "o3-mini"} {
		p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: tier})
		require.NoError(t, err)
		assert.Equal(t, want, p.ModelID(), tier)
	}
}
