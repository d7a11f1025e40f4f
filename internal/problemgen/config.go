package problemgen

// Config controls prompt sizing and LLM call parameters.
type Config struct {
	// Model overrides the provider's configured model for every call.
	// Friendly names such as "flash" and "pro" are resolved by the provider.
	Model string

	// MaxTokens is the token budget for each response. Zero leaves the
	// provider default in place.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64

	// MaxSectionChars truncates each input document section of the
	// topic analysis prompt.
	MaxSectionChars int

	// MaxContextChars truncates the reference context of the question
	// generation prompt.
	MaxContextChars int
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:       16384,
		Temperature:     0.7,
		MaxSectionChars: 15000,
		MaxContextChars: 20000,
	}
}
