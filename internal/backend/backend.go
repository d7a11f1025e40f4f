// Package backend resolves the AI backend credential and builds the
// generators used by the server, the terminal UI and the CLI.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/store"
)

// ErrEmptyKey is returned when saving a blank key.
var ErrEmptyKey = errors.New("API key is empty")

// Source tells where the active key came from.
type Source string

const (
	SourceNone   Source = ""
	SourceConfig Source = "config" // config file or environment
	SourceStore  Source = "store"  // saved credential slot
)

// ProviderFactory builds a decorated provider. llm.NewProvider is the
// default.
type ProviderFactory func(ctx context.Context, cfg llm.Config, events store.EventRepo, logger *slog.Logger) (llm.Provider, error)

// Backend combines the provider configuration, the credential slot, the
// LLM event log and the diagram renderer.
type Backend struct {
	llmCfg      llm.Config
	genCfg      problemgen.Config
	creds       store.CredentialRepo
	events      store.EventRepo
	renderer    problemgen.Renderer
	logger      *slog.Logger
	newProvider ProviderFactory
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger passed to providers and generators.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithEventRepo records every LLM request in repo.
func WithEventRepo(repo store.EventRepo) Option {
	return func(b *Backend) { b.events = repo }
}

// WithRenderer sets the diagram renderer.
func WithRenderer(r problemgen.Renderer) Option {
	return func(b *Backend) { b.renderer = r }
}

// WithProviderFactory replaces llm.NewProvider.
func WithProviderFactory(fn ProviderFactory) Option {
	return func(b *Backend) { b.newProvider = fn }
}

// New creates a Backend. creds may be nil, in which case only configured
// keys are used and Save fails.
func New(llmCfg llm.Config, genCfg problemgen.Config, creds store.CredentialRepo, opts ...Option) *Backend {
	b := &Backend{
		llmCfg:      llmCfg,
		genCfg:      genCfg,
		creds:       creds,
		logger:      slog.Default(),
		newProvider: llm.NewProvider,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CredentialKey is the name of the credential slot, e.g. GEMINI_API_KEY.
func (b *Backend) CredentialKey() string {
	return b.llmCfg.CredentialKey()
}

// Provider is the configured provider name.
func (b *Backend) Provider() string {
	return b.llmCfg.Provider
}

// Key returns the active key and its source. A configured key wins; the
// saved slot only fills an empty one.
func (b *Backend) Key(ctx context.Context) (string, Source, error) {
	if key := b.llmCfg.APIKey(); key != "" {
		return key, SourceConfig, nil
	}
	if b.creds == nil {
		return "", SourceNone, nil
	}
	key, err := b.creds.Load(ctx, b.CredentialKey())
	if err != nil {
		return "", SourceNone, err
	}
	if key == "" {
		return "", SourceNone, nil
	}
	return key, SourceStore, nil
}

// Generator builds a generator for the active key. Without a key the
// generator has no provider and every flow reports
// problemgen.ErrNoCredential.
func (b *Backend) Generator(ctx context.Context) (*problemgen.Generator, error) {
	key, _, err := b.Key(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return b.build(ctx, key)
}

// Save stores key in the credential slot and returns a generator that
// uses it, even when a configured key exists.
func (b *Backend) Save(ctx context.Context, key string) (*problemgen.Generator, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrEmptyKey
	}
	if b.creds == nil {
		return nil, errors.New("no credential store")
	}
	if err := b.creds.Save(ctx, b.CredentialKey(), key); err != nil {
		return nil, err
	}
	b.logger.Info("credential saved", "slot", b.CredentialKey())
	return b.build(ctx, key)
}

// Clear empties the credential slot.
func (b *Backend) Clear(ctx context.Context) error {
	if b.creds == nil {
		return nil
	}
	return b.creds.Clear(ctx, b.CredentialKey())
}

func (b *Backend) build(ctx context.Context, key string) (*problemgen.Generator, error) {
	opts := []problemgen.Option{problemgen.WithLogger(b.logger)}

	if key == "" && b.llmCfg.Provider != "mock" {
		return problemgen.New(nil, b.renderer, b.genCfg, opts...), nil
	}

	cfg := b.llmCfg
	cfg.SetAPIKey(key)
	provider, err := b.newProvider(ctx, cfg, b.events, b.logger)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}
	return problemgen.New(provider, b.renderer, b.genCfg, opts...), nil
}
