package problemgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/worksheet"
)

// ErrNoCredential is returned by every flow when no provider is configured.
var ErrNoCredential = errors.New("no API key configured")

// LLM call purposes, recorded in the request event log.
const (
	PurposeTopicAnalysis = "topic-analysis"
	PurposeQuestionGen   = "question-gen"
	PurposeImageFix      = "image-fix"
)

// Renderer executes plotting code and returns a PNG data URI. It reports
// failure with ok == false and never returns an error.
type Renderer interface {
	Render(ctx context.Context, code string) (dataURI string, ok bool)
}

// Generator drives the LLM calls and diagram rendering for a worksheet.
type Generator struct {
	provider llm.Provider
	renderer Renderer
	config   Config
	logger   *slog.Logger
	onRender func(RenderEvent)
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for parse and validation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRenderObserver registers fn to be called after every settled render.
// fn may be called from several goroutines at once.
func WithRenderObserver(fn func(RenderEvent)) Option {
	return func(g *Generator) { g.onRender = fn }
}

// New creates a Generator. A nil provider means no credential is
// configured; a nil renderer leaves every diagram pending.
func New(provider llm.Provider, renderer Renderer, cfg Config, opts ...Option) *Generator {
	g := &Generator{
		provider: provider,
		renderer: renderer,
		config:   cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ready reports whether a provider is configured.
func (g *Generator) Ready() bool {
	return g.provider != nil
}

// WithModel returns a copy of g that requests the given model.
func (g *Generator) WithModel(model string) *Generator {
	c := *g
	c.config.Model = model
	return &c
}

// Observe returns a copy of g that reports settled renders to fn instead
// of the observer it was created with.
func (g *Generator) Observe(fn func(RenderEvent)) *Generator {
	c := *g
	c.onRender = fn
	return &c
}

// Analyze asks the model for curriculum topics. Every returned topic is
// selected and carries the seed counts. A backend failure returns an empty
// list and the error; an unparseable response returns an empty list and
// no error.
func (g *Generator) Analyze(ctx context.Context, in TopicPromptInput) ([]worksheet.Topic, error) {
	topics := []worksheet.Topic{}

	text, err := g.complete(ctx, PurposeTopicAnalysis, BuildTopicPrompt(in, g.config), true)
	if err != nil {
		return topics, fmt.Errorf("topic analysis: %w", err)
	}

	ids := idSet{}
	for i, rec := range parseRecords(text, g.logger) {
		var r topicRecord
		if !g.decodeRecord(TopicSchema, rec, &r, "index", i) {
			continue
		}
		topics = append(topics, toTopic(r, ids))
	}
	return topics, nil
}

// Generate asks the model for questions covering the selected topics and
// the manual topic, then renders every diagram concurrently. With nothing
// selected and no manual topic it returns an empty list without a call.
func (g *Generator) Generate(ctx context.Context, in QuestionPromptInput) ([]worksheet.Question, error) {
	questions, err := g.Draft(ctx, in)
	if err != nil {
		return nil, err
	}
	g.RenderAll(ctx, questions)
	return questions, nil
}

// Draft is Generate without rendering: every diagram is left pending.
func (g *Generator) Draft(ctx context.Context, in QuestionPromptInput) ([]worksheet.Question, error) {
	if g.provider == nil {
		return nil, ErrNoCredential
	}
	if !hasSelection(in.Topics) && strings.TrimSpace(in.ManualTopic) == "" {
		return []worksheet.Question{}, nil
	}

	text, err := g.complete(ctx, PurposeQuestionGen, BuildQuestionPrompt(in, g.config), true)
	if err != nil {
		return nil, fmt.Errorf("question generation: %w", err)
	}

	questions := []worksheet.Question{}
	ids := idSet{}
	for i, rec := range parseRecords(text, g.logger) {
		var r questionRecord
		if !g.decodeRecord(QuestionSchema, rec, &r, "index", i) {
			continue
		}
		questions = append(questions, toQuestion(r, g.decodeParts(r.Parts, i), ids))
	}
	return questions, nil
}

// FixImage asks the model to revise plotting code per a user instruction.
// The result is sanitized.
func (g *Generator) FixImage(ctx context.Context, in ImageFixInput) (string, error) {
	text, err := g.complete(ctx, PurposeImageFix, BuildImageFixPrompt(in), false)
	if err != nil {
		return "", fmt.Errorf("image fix: %w", err)
	}
	return SanitizeCode(text), nil
}

// Render runs a single piece of plotting code.
func (g *Generator) Render(ctx context.Context, code string) (string, bool) {
	if g.renderer == nil || code == "" {
		return "", false
	}
	return g.renderer.Render(ctx, code)
}

func (g *Generator) complete(ctx context.Context, purpose, prompt string, jsonOut bool) (string, error) {
	if g.provider == nil {
		return "", ErrNoCredential
	}

	ctx = llm.WithPurpose(ctx, purpose)
	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
		Model:       g.config.Model,
		JSON:        jsonOut,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	return string(resp.Content), nil
}

func (g *Generator) decodeRecord(schema *llm.Schema, rec json.RawMessage, dst any, attrs ...any) bool {
	if err := llm.Validate(schema, rec); err != nil {
		g.logger.Warn("skipping invalid record", append([]any{"schema", schema.Name, "error", err}, attrs...)...)
		return false
	}
	if err := json.Unmarshal(rec, dst); err != nil {
		g.logger.Warn("skipping undecodable record", append([]any{"schema", schema.Name, "error", err}, attrs...)...)
		return false
	}
	return true
}

// decodeParts drops parts that fail validation and keeps the rest in
// order.
func (g *Generator) decodeParts(raw []json.RawMessage, question int) []partRecord {
	parts := make([]partRecord, 0, len(raw))
	for j, rec := range raw {
		var p partRecord
		if !g.decodeRecord(SubQuestionSchema, rec, &p, "index", question, "part", j) {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

func hasSelection(topics []worksheet.Topic) bool {
	for _, t := range topics {
		if t.Selected {
			return true
		}
	}
	return false
}
