// Package sandbox renders matplotlib code in a long-lived Python
// interpreter and returns the figure as a PNG data URI.
package sandbox

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

//go:embed bootstrap.py
var bootstrapScript string

var commandContext = exec.CommandContext

var (
	// ErrClosed is returned once the bridge has been closed.
	ErrClosed = errors.New("sandbox closed")

	// ErrRenderTimeout is returned when a render overruns RenderTimeout.
	ErrRenderTimeout = errors.New("render timed out")

	// ErrInterpreterExited is returned when the interpreter dies mid-render.
	ErrInterpreterExited = errors.New("interpreter exited")
)

const dataURIPrefix = "data:image/png;base64,"

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// Bridge serialises access to a Python interpreter. It is safe for
// concurrent use; renders queue on a single slot so that running the code
// and capturing the figure happen as one step.
type Bridge struct {
	cfg    Config
	logger *slog.Logger

	slot  chan struct{}
	group singleflight.Group

	mu     sync.Mutex
	proc   *process
	closed bool
	seq    int
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger for render failures and interpreter output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Bridge. The interpreter is started on first use.
func New(cfg Config, opts ...Option) *Bridge {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.Python) == "" {
		cfg.Python = def.Python
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = def.StartTimeout
	}

	b := &Bridge{
		cfg:    cfg,
		logger: slog.Default(),
		slot:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Render runs code and returns the resulting figure as a data URI. It
// never returns an error: failures are logged and reported as ok == false.
func (b *Bridge) Render(ctx context.Context, code string) (string, bool) {
	if strings.TrimSpace(code) == "" {
		return "", false
	}

	select {
	case b.slot <- struct{}{}:
	case <-ctx.Done():
		b.logger.Warn("diagram render abandoned while queued", "error", ctx.Err())
		return "", false
	}
	defer func() { <-b.slot }()

	start := time.Now()
	img, err := b.render(ctx, code)
	if err != nil {
		b.logger.Warn("diagram render failed",
			"error", err,
			"duration", time.Since(start).Round(time.Millisecond))
		return "", false
	}
	b.logger.Debug("diagram rendered",
		"bytes", len(img),
		"duration", time.Since(start).Round(time.Millisecond))
	return dataURIPrefix + img, true
}

// Warm starts the interpreter ahead of the first render.
func (b *Bridge) Warm(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.ensure()
	return err
}

// Close stops the interpreter. Later renders fail.
func (b *Bridge) Close() error {
	b.mu.Lock()
	p := b.proc
	b.proc = nil
	b.closed = true
	b.mu.Unlock()

	if p != nil {
		p.kill()
	}
	return nil
}

// render must be called while holding the slot.
func (b *Bridge) render(ctx context.Context, code string) (string, error) {
	p, err := b.ensure()
	if err != nil {
		return "", err
	}
	if b.cfg.Isolated {
		defer b.discard(p)
	}

	b.seq++
	id := b.seq
	if err := p.send(request{ID: id, Code: code}); err != nil {
		b.discard(p)
		return "", err
	}

	var timeout <-chan time.Time
	if b.cfg.RenderTimeout > 0 {
		t := time.NewTimer(b.cfg.RenderTimeout)
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case r, ok := <-p.replies:
			if !ok {
				b.discard(p)
				return "", ErrInterpreterExited
			}
			if r.ID == nil || *r.ID != id {
				continue
			}
			if r.Error != "" {
				return "", fmt.Errorf("python: %s", r.Error)
			}
			if err := checkPNG(r.Image); err != nil {
				return "", err
			}
			return r.Image, nil
		case <-timeout:
			b.discard(p)
			return "", ErrRenderTimeout
		case <-ctx.Done():
			b.discard(p)
			return "", ctx.Err()
		}
	}
}

// ensure returns the running interpreter, starting one if needed.
// Concurrent callers share a single start attempt; a failed start is
// retried by the next caller.
func (b *Bridge) ensure() (*process, error) {
	if p, err := b.current(); p != nil || err != nil {
		return p, err
	}

	v, err, _ := b.group.Do("start", func() (any, error) {
		if p, err := b.current(); p != nil || err != nil {
			return p, err
		}

		p, err := b.start()
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			go p.kill()
			return nil, ErrClosed
		}
		b.proc = p
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*process), nil
}

func (b *Bridge) current() (*process, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if b.proc != nil && !b.proc.alive() {
		b.proc = nil
	}
	return b.proc, nil
}

func (b *Bridge) start() (*process, error) {
	cmd := commandContext(context.Background(), b.cfg.Python, "-u", "-c", bootstrapScript) //nolint:gosec
	cmd.Stderr = stderrLog{logger: b.logger}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", b.cfg.Python, err)
	}

	p := &process{
		cmd:     cmd,
		stdin:   stdin,
		replies: make(chan reply, 1),
		exited:  make(chan struct{}),
	}
	go p.readLoop(stdout, b.logger)

	t := time.NewTimer(b.cfg.StartTimeout)
	defer t.Stop()

	select {
	case r, ok := <-p.replies:
		if !ok {
			return nil, errors.New("interpreter exited during startup")
		}
		if !r.Ready {
			p.kill()
			return nil, fmt.Errorf("interpreter not ready: %s", r.Error)
		}
	case <-t.C:
		p.kill()
		return nil, fmt.Errorf("interpreter startup timed out after %s", b.cfg.StartTimeout)
	}

	b.logger.Info("python interpreter started", "python", b.cfg.Python, "pid", cmd.Process.Pid)
	return p, nil
}

// discard kills p and forgets it if it is still the current interpreter.
func (b *Bridge) discard(p *process) {
	b.mu.Lock()
	if b.proc == p {
		b.proc = nil
	}
	b.mu.Unlock()
	p.kill()
}

func checkPNG(b64 string) error {
	if b64 == "" {
		return errors.New("empty image")
	}
	head := b64
	if len(head) > 24 {
		head = head[:24]
	}
	raw, err := base64.StdEncoding.DecodeString(head)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if !bytes.HasPrefix(raw, pngMagic) {
		return errors.New("image is not a PNG")
	}
	return nil
}
