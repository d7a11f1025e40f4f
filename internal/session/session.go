// Package session holds the worksheet being built and runs the analyze,
// generate, redraw and export flows against it. A Session is shared by
// the HTTP API and the terminal UI and is safe for concurrent use.
package session

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/worksheet"
)

var (
	// ErrNotFound is returned for an unknown topic, question or part id.
	ErrNotFound = errors.New("not found")

	// ErrRenderFailed is returned by Redraw when the revised code does not
	// produce an image.
	ErrRenderFailed = errors.New("diagram render failed")
)

// Session is the in-memory state of one worksheet.
type Session struct {
	mu          sync.Mutex
	gen         *problemgen.Generator
	files       []worksheet.FileData
	topics      []worksheet.Topic
	questions   []worksheet.Question
	manualTopic string
	model       string

	// generation changes whenever the question list is replaced, so
	// late render results for an older list are dropped.
	generation int
	// redraws counts redraws started per item in the current generation.
	// A generate render never overwrites an item that has been redrawn,
	// and a redraw only lands if no later redraw of the item began.
	redraws map[itemKey]int

	events *broadcaster
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithModel sets the initial model name.
func WithModel(model string) Option {
	return func(s *Session) { s.model = strings.TrimSpace(model) }
}

// New creates an empty session. gen may be replaced later with
// SetGenerator, for example after a key is saved.
func New(gen *problemgen.Generator, opts ...Option) *Session {
	s := &Session{
		gen:    gen,
		events: newBroadcaster(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetGenerator swaps the generator used by later flows.
func (s *Session) SetGenerator(gen *problemgen.Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen = gen
}

// Ready reports whether a credential is configured.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen != nil && s.gen.Ready()
}

// Subscribe registers fn for session events and returns a function that
// removes it.
func (s *Session) Subscribe(fn func(Event)) func() {
	return s.events.subscribe(fn)
}

// Settings are the user-adjustable generation options.
type Settings struct {
	Model       string `json:"model"`
	ManualTopic string `json:"manualTopic"`
}

// Settings returns the current settings.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Settings{Model: s.model, ManualTopic: s.manualTopic}
}

// SetModel selects the model for later calls. Empty means the provider
// default.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = strings.TrimSpace(model)
}

// SetManualTopic sets the free-form topic hint.
func (s *Session) SetManualTopic(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualTopic = topic
}

// generatorLocked returns the generator for the current model, or an
// error when no credential is configured. Callers hold s.mu.
func (s *Session) generatorLocked() (*problemgen.Generator, error) {
	if s.gen == nil || !s.gen.Ready() {
		return nil, problemgen.ErrNoCredential
	}
	if s.model == "" {
		return s.gen, nil
	}
	return s.gen.WithModel(s.model), nil
}
