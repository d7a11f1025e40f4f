package llm

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/mathsheet/internal/store"
)

type purposeKey struct{}

// WithPurpose labels the calls made with ctx in the event log, e.g.
// "topic-analysis" or "image-fix".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// LoggingProvider records every call in the event log and writes one
// structured log line for it.
type LoggingProvider struct {
	inner     Provider
	name      string
	eventRepo store.EventRepo
	logger    *slog.Logger
}

// WithLogging wraps p. A nil repo keeps only the log line; a nil logger
// means slog.Default.
func WithLogging(p Provider, name string, repo store.EventRepo, logger *slog.Logger) Provider {
	return &LoggingProvider{inner: p, name: name, eventRepo: repo, logger: cmp.Or(logger, slog.Default())}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    l.name,
		Model:       cmp.Or(req.Model, l.inner.ModelID()),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}

	level, msg := slog.LevelInfo, "llm request"
	attrs := []any{"provider", l.name, "model", ev.Model, "purpose", ev.Purpose, "latency_ms", ev.LatencyMs}
	if err != nil {
		ev.ErrorMessage = err.Error()
		level, msg = slog.LevelWarn, "llm request failed"
		attrs = append(attrs, "error", err)
	} else {
		attrs = append(attrs, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)
	}
	l.logger.Log(ctx, level, msg, attrs...)

	if l.eventRepo != nil {
		if rerr := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), ev); rerr != nil {
			l.logger.Warn("record llm event", "error", rerr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// transcript renders req the way `mathsheet llm view` shows it: an options
// line, then one tagged block per message, then the schema.
func transcript(req Request) string {
	var b strings.Builder
	if req.Model != "" || req.JSON {
		fmt.Fprintf(&b, "[options] model=%q json=%t\n\n", req.Model, req.JSON)
	}
	block := func(tag, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", tag, body)
	}
	if req.System != "" {
		block("system", req.System)
	}
	for _, m := range req.Messages {
		block(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
