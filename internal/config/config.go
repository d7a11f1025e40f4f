package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/sandbox"
	"github.com/abhisek/mathsheet/internal/store"
)

//go:embed sample_config.toml
var sampleConfig string

// LLM selects the text-completion backend.
type LLM struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
}

// Server contains the HTTP API settings.
type Server struct {
	Bind            string   `toml:"bind"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	MaxUploadMiB    int      `toml:"max_upload_mib"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// Sandbox configures the Python interpreter used for diagrams.
type Sandbox struct {
	Python        string `toml:"python"`
	StartTimeout  int    `toml:"start_timeout"`
	RenderTimeout int    `toml:"render_timeout"`
	Isolated      bool   `toml:"isolated"`
}

// Store points at the SQLite database.
type Store struct {
	DBPath string `toml:"db_path"` // Default: ~/.local/share/mathsheet/mathsheet.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Worksheet tunes prompts and the exported document.
type Worksheet struct {
	Title           string  `toml:"title"`
	Footer          string  `toml:"footer"`
	MaxTokens       int     `toml:"max_tokens"`
	Temperature     float64 `toml:"temperature"`
	MaxSectionChars int     `toml:"max_section_chars"`
	MaxContextChars int     `toml:"max_context_chars"`
}

// Config encapsulates all configuration values for mathsheet.
//
// Configuration sections by subsystem:
//   - LLM: backend provider, model and credential
//   - Server: HTTP API bind address and timeouts
//   - Sandbox: Python interpreter for diagram rendering
//   - Store: SQLite database location
//   - Logging: log format, level and destination
//   - Worksheet: prompt sizing and document defaults
type Config struct {
	LLM       LLM       `toml:"llm"`
	Server    Server    `toml:"server"`
	Sandbox   Sandbox   `toml:"sandbox"`
	Store     Store     `toml:"store"`
	Logging   Logging   `toml:"logging"`
	Worksheet Worksheet `toml:"worksheet"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mathsheet/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file in
// the working directory is read first; variables already set in the
// environment win over it.
func Load(path string) (*Config, string, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mathsheet.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig builds the provider configuration. Precedence is defaults, then
// the [llm] section, then MATHSHEET_* variables, then the provider's plain
// key variable (GEMINI_API_KEY and friends) when no key is set yet.
func (c *Config) LLMConfig() llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Provider = c.LLM.Provider
	if c.LLM.APIKey != "" {
		cfg.SetAPIKey(c.LLM.APIKey)
	}
	if c.LLM.Model != "" {
		cfg.SetModel(c.LLM.Model)
	}
	if c.LLM.BaseURL != "" {
		cfg.SetBaseURL(c.LLM.BaseURL)
	}
	cfg.Timeout = time.Duration(c.LLM.TimeoutSeconds) * time.Second
	cfg.Retry.MaxAttempts = c.LLM.MaxAttempts

	cfg.ApplyEnv()
	if cfg.APIKey() == "" {
		cfg.SetAPIKey(strings.TrimSpace(os.Getenv(cfg.CredentialKey())))
	}
	return cfg
}

// SandboxConfig returns the interpreter settings.
func (c *Config) SandboxConfig() sandbox.Config {
	return sandbox.Config{
		Python:        c.Sandbox.Python,
		StartTimeout:  time.Duration(c.Sandbox.StartTimeout) * time.Second,
		RenderTimeout: time.Duration(c.Sandbox.RenderTimeout) * time.Second,
		Isolated:      c.Sandbox.Isolated,
	}
}

// GeneratorConfig returns the prompt and call settings for the generator.
func (c *Config) GeneratorConfig() problemgen.Config {
	cfg := problemgen.DefaultConfig()
	cfg.MaxTokens = c.Worksheet.MaxTokens
	cfg.Temperature = c.Worksheet.Temperature
	cfg.MaxSectionChars = c.Worksheet.MaxSectionChars
	cfg.MaxContextChars = c.Worksheet.MaxContextChars
	return cfg
}

// DBPath returns the configured database path, or the default location when
// none is set. The parent directory is created.
func (c *Config) DBPath() (string, error) {
	if c.Store.DBPath == "" {
		return store.DefaultDBPath()
	}
	return c.Store.DBPath, store.EnsureDir(c.Store.DBPath)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
