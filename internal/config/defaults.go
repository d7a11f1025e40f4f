package config

import (
	"github.com/abhisek/mathsheet/internal/docx"
)

const (
	defaultLLMProvider           = "gemini"
	defaultLLMTimeoutSeconds     = 180
	defaultLLMMaxAttempts        = 3
	defaultServerBind            = "127.0.0.1:8787"
	defaultServerReadTimeout     = 30
	defaultServerWriteTimeout    = 300
	defaultServerShutdownTimeout = 10
	defaultMaxUploadMiB          = 32
	defaultPython                = "python3"
	defaultSandboxStartTimeout   = 60
	defaultSandboxRenderTimeout  = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogOutput             = "stderr"
	defaultMaxTokens             = 16384
	defaultTemperature           = 0.7
	defaultMaxSectionChars       = 15000
	defaultMaxContextChars       = 20000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		LLM: LLM{
			Provider:       defaultLLMProvider,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxAttempts:    defaultLLMMaxAttempts,
		},
		Server: Server{
			Bind:            defaultServerBind,
			ReadTimeout:     defaultServerReadTimeout,
			WriteTimeout:    defaultServerWriteTimeout,
			ShutdownTimeout: defaultServerShutdownTimeout,
			MaxUploadMiB:    defaultMaxUploadMiB,
			AllowedOrigins:  []string{"*"},
		},
		Sandbox: Sandbox{
			Python:        defaultPython,
			StartTimeout:  defaultSandboxStartTimeout,
			RenderTimeout: defaultSandboxRenderTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Output: defaultLogOutput,
		},
		Worksheet: Worksheet{
			Title:           docx.DefaultTitle,
			Footer:          docx.DefaultFooter,
			MaxTokens:       defaultMaxTokens,
			Temperature:     defaultTemperature,
			MaxSectionChars: defaultMaxSectionChars,
			MaxContextChars: defaultMaxContextChars,
		},
	}
}
