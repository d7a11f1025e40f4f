package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 3m, since worksheet generation
	// produces long responses.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "flash"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "flash"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "flash"
	BaseURL string // Optional. Override for proxies and tests.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "flash"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   "gemini",
		Anthropic:  AnthropicConfig{Model: "flash"},
		OpenAI:     OpenAIConfig{Model: "flash"},
		Gemini:     GeminiConfig{Model: "flash"},
		OpenRouter: OpenRouterConfig{Model: "flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 3 * time.Minute,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// providerNames lists the real providers.
var providerNames = []string{"gemini", "openai", "anthropic", "openrouter"}

// fields points at the key, model and base URL of one provider. BaseURL is
// nil where the provider has none.
type fields struct {
	APIKey, Model, BaseURL *string
}

func (c *Config) fields(provider string) (fields, bool) {
	switch provider {
	case "gemini":
		return fields{&c.Gemini.APIKey, &c.Gemini.Model, &c.Gemini.BaseURL}, true
	case "openai":
		return fields{&c.OpenAI.APIKey, &c.OpenAI.Model, &c.OpenAI.BaseURL}, true
	case "anthropic":
		return fields{&c.Anthropic.APIKey, &c.Anthropic.Model, nil}, true
	case "openrouter":
		return fields{&c.OpenRouter.APIKey, &c.OpenRouter.Model, &c.OpenRouter.BaseURL}, true
	}
	return fields{}, false
}

// ApplyEnv overrides c with any MATHSHEET_* variables that are set:
// MATHSHEET_LLM_PROVIDER and, per provider, MATHSHEET_<NAME>_API_KEY,
// _MODEL and _BASE_URL.
func (c *Config) ApplyEnv() {
	if p := os.Getenv("MATHSHEET_LLM_PROVIDER"); p != "" {
		c.Provider = p
	}
	for _, name := range providerNames {
		f, _ := c.fields(name)
		prefix := "MATHSHEET_" + strings.ToUpper(name) + "_"
		setFromEnv(f.APIKey, prefix+"API_KEY")
		setFromEnv(f.Model, prefix+"MODEL")
		if f.BaseURL != nil {
			setFromEnv(f.BaseURL, prefix+"BASE_URL")
		}
	}
}

func setFromEnv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// APIKey returns the key of the selected provider.
func (c Config) APIKey() string {
	if f, ok := c.fields(c.Provider); ok {
		return *f.APIKey
	}
	return ""
}

// SetAPIKey sets the key of the selected provider.
func (c *Config) SetAPIKey(key string) {
	if f, ok := c.fields(c.Provider); ok {
		*f.APIKey = key
	}
}

// SetModel sets the model of the selected provider.
func (c *Config) SetModel(model string) {
	if f, ok := c.fields(c.Provider); ok {
		*f.Model = model
	}
}

// SetBaseURL sets the endpoint of the selected provider. Anthropic has no
// configurable endpoint and ignores it.
func (c *Config) SetBaseURL(url string) {
	if f, ok := c.fields(c.Provider); ok && f.BaseURL != nil {
		*f.BaseURL = url
	}
}

// CredentialKey is the name of the stored credential slot for the selected
// provider, e.g. "GEMINI_API_KEY".
func (c Config) CredentialKey() string {
	return strings.ToUpper(c.Provider) + "_API_KEY"
}

// Validate checks that the selected provider exists and has a key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	f, ok := c.fields(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if strings.TrimSpace(*f.APIKey) == "" {
		return fmt.Errorf("MATHSHEET_%s is required for the %s provider", c.CredentialKey(), c.Provider)
	}
	return nil
}
