package backend

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/store"
)

type memCreds struct {
	values map[string]string
	err    error
}

func (m *memCreds) Load(_ context.Context, name string) (string, error) {
	return m.values[name], m.err
}

func (m *memCreds) Save(_ context.Context, name, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[name] = value
	return nil
}

func (m *memCreds) Clear(_ context.Context, name string) error {
	delete(m.values, name)
	return nil
}

type recordingFactory struct {
	keys []string
}

func (f *recordingFactory) build(_ context.Context, cfg llm.Config, _ store.EventRepo, _ *slog.Logger) (llm.Provider, error) {
	f.keys = append(f.keys, cfg.APIKey())
	return llm.NewMockProvider(), nil
}

func newBackend(cfg llm.Config, creds *memCreds) (*Backend, *recordingFactory) {
	f := &recordingFactory{}
	return New(cfg, problemgen.DefaultConfig(), creds, WithProviderFactory(f.build)), f
}

func TestKeyPrefersConfig(t *testing.T) {
	cfg := llm.DefaultConfig()
	cfg.Gemini.APIKey = "from-env"
	creds := &memCreds{values: map[string]string{"GEMINI_API_KEY": "saved"}}
	b, _ := newBackend(cfg, creds)

	key, src, err := b.Key(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
	assert.Equal(t, SourceConfig, src)
}

func TestKeyFallsBackToStore(t *testing.T) {
	creds := &memCreds{values: map[string]string{"GEMINI_API_KEY": "saved"}}
	b, f := newBackend(llm.DefaultConfig(), creds)

	key, src, err := b.Key(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "saved", key)
	assert.Equal(t, SourceStore, src)

	gen, err := b.Generator(context.Background())
	require.NoError(t, err)
	assert.True(t, gen.Ready())
	assert.Equal(t, []string{"saved"}, f.keys)
}

func TestGeneratorWithoutKey(t *testing.T) {
	b, f := newBackend(llm.DefaultConfig(), &memCreds{values: map[string]string{}})

	gen, err := b.Generator(context.Background())
	require.NoError(t, err)
	assert.False(t, gen.Ready())
	assert.Empty(t, f.keys, "no provider should be built without a key")

	_, err = gen.Analyze(context.Background(), problemgen.TopicPromptInput{Distribution: "x"})
	assert.ErrorIs(t, err, problemgen.ErrNoCredential)
}

func TestGeneratorLoadError(t *testing.T) {
	b, _ := newBackend(llm.DefaultConfig(), &memCreds{values: map[string]string{}, err: errors.New("disk")})

	_, err := b.Generator(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load credential")
}

func TestSaveOverridesConfiguredKey(t *testing.T) {
	cfg := llm.DefaultConfig()
	cfg.Gemini.APIKey = "from-env"
	creds := &memCreds{values: map[string]string{}}
	b, f := newBackend(cfg, creds)

	gen, err := b.Save(context.Background(), "  typed-in  ")
	require.NoError(t, err)
	assert.True(t, gen.Ready())
	assert.Equal(t, "typed-in", creds.values["GEMINI_API_KEY"])
	assert.Equal(t, []string{"typed-in"}, f.keys)
}

func TestSaveRejectsBlank(t *testing.T) {
	b, _ := newBackend(llm.DefaultConfig(), &memCreds{values: map[string]string{}})
	_, err := b.Save(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestClear(t *testing.T) {
	creds := &memCreds{values: map[string]string{"OPENAI_API_KEY": "k"}}
	cfg := llm.DefaultConfig()
	cfg.Provider = "openai"
	b, _ := newBackend(cfg, creds)

	assert.Equal(t, "OPENAI_API_KEY", b.CredentialKey())
	require.NoError(t, b.Clear(context.Background()))
	_, src, err := b.Key(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceNone, src)
}

func TestMockProviderNeedsNoKey(t *testing.T) {
	cfg := llm.DefaultConfig()
	cfg.Provider = "mock"
	b := New(cfg, problemgen.DefaultConfig(), nil)

	gen, err := b.Generator(context.Background())
	require.NoError(t, err)
	assert.True(t, gen.Ready())
}
