package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		model   string
		wantErr bool
	}{
		{"flash tier", OpenRouterConfig{APIKey: "sk-or-test", Model: "flash"}, "google/gemini-2.5-flash", false},
		{"pro tier", OpenRouterConfig{APIKey: "sk-or-test", Model: "pro"}, "google/gemini-3-pro-preview", false},
		{"slug passes through", OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-3-haiku"}, "anthropic/claude-3-haiku", false},
		{"blank key", OpenRouterConfig{APIKey: "  ", Model: "flash"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.model, p.ModelID())
		})
	}
}

func TestOpenRouterProvider_SendsAttribution(t *testing.T) {
	stub := newVendorStub(t, http.StatusOK, chatCompletion("google/gemini-3-pro-preview", `[]`, "stop"))

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "flash", BaseURL: stub.URL + "/v1"})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "Sinh câu hỏi."}},
		Model:    "pro",
	})
	require.NoError(t, err)

	header := stub.lastHeader()
	assert.Equal(t, openRouterReferer, header.Get("HTTP-Referer"))
	assert.Equal(t, openRouterTitle, header.Get("X-Title"))
	assert.Equal(t, "Bearer sk-or-test", header.Get("Authorization"))
	assert.Equal(t, "google/gemini-3-pro-preview", stub.lastBody()["model"])
	assert.Equal(t, "[]", string(resp.Content))
}
