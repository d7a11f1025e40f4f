package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. A missing API key is not an
// error: the key can be entered later and is kept in the credential store.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateWorksheet(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic", "openrouter", "mock":
	default:
		return fmt.Errorf("llm.provider: unsupported value %q", c.LLM.Provider)
	}
	if c.LLM.MaxAttempts < 1 {
		return errors.New("llm.max_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":     c.LLM.TimeoutSeconds,
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"server.max_upload_mib":   c.Server.MaxUploadMiB,
		"sandbox.start_timeout":   c.Sandbox.StartTimeout,
		"sandbox.render_timeout":  c.Sandbox.RenderTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateWorksheet() error {
	if c.Worksheet.Temperature < 0 || c.Worksheet.Temperature > 2 {
		return errors.New("worksheet.temperature must be between 0 and 2")
	}
	if err := ensurePositiveMap(map[string]int{
		"worksheet.max_section_chars": c.Worksheet.MaxSectionChars,
		"worksheet.max_context_chars": c.Worksheet.MaxContextChars,
	}); err != nil {
		return err
	}
	if c.Worksheet.MaxTokens < 0 {
		return errors.New("worksheet.max_tokens must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
