package llm

import (
	"cmp"
	"errors"
	"net/http"
	"strings"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	openRouterReferer = "https://github.com/abhisek/mathsheet"
	openRouterTitle   = "mathsheet"
)

// openRouterModels routes the "flash" and "pro" tiers to Gemini through
// OpenRouter. Other names are OpenRouter model slugs and pass through.
var openRouterModels = map[string]string{
	"flash": "google/gemini-2.5-flash",
	"pro":   "google/gemini-3-pro-preview",
}

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible endpoint.
// Every request carries the HTTP-Referer and X-Title headers OpenRouter
// uses to attribute traffic to an app.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openrouter API key is required")
	}

	httpClient := &http.Client{Transport: attributionTransport{base: http.DefaultTransport}}
	inner, err := newOpenAIProviderRaw(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cmp.Or(cfg.BaseURL, defaultOpenRouterBaseURL),
	}, openRouterModels, httpClient)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

type attributionTransport struct {
	base http.RoundTripper
}

func (t attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", openRouterReferer)
	req.Header.Set("X-Title", openRouterTitle)
	return t.base.RoundTrip(req)
}
