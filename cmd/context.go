package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathsheet/internal/backend"
	"github.com/abhisek/mathsheet/internal/config"
	"github.com/abhisek/mathsheet/internal/logging"
	"github.com/abhisek/mathsheet/internal/sandbox"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/store"
)

// commandContext carries the global flags and loads the configuration once
// per invocation.
type commandContext struct {
	configFlag   string
	dbFlag       string
	modelFlag    string
	logLevelFlag string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if p := strings.TrimSpace(c.dbFlag); p != "" {
			expanded, err := config.ExpandPath(p)
			if err != nil {
				c.configErr = fmt.Errorf("resolve --db: %w", err)
				return
			}
			cfg.Store.DBPath = expanded
		}
		if m := strings.TrimSpace(c.modelFlag); m != "" {
			cfg.LLM.Model = m
		}
		if lvl := strings.TrimSpace(c.logLevelFlag); lvl != "" {
			cfg.Logging.Level = strings.ToLower(lvl)
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// runtime is everything a worksheet flow needs: logger, store, diagram
// bridge, credential backend and the session itself.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	bridge  *sandbox.Bridge
	backend *backend.Backend
	session *session.Session

	logCloser io.Closer
}

// newRuntime wires the application. logOutput overrides the configured log
// destination when not empty.
func (c *commandContext) newRuntime(ctx context.Context, logOutput string) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	output := cfg.Logging.Output
	if logOutput != "" {
		output = logOutput
	}
	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: output,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := c.openStore()
	if err != nil {
		closer.Close()
		return nil, err
	}

	bridge := sandbox.New(cfg.SandboxConfig(), sandbox.WithLogger(logger))
	be := backend.New(cfg.LLMConfig(), cfg.GeneratorConfig(), st.CredentialRepo(),
		backend.WithEventRepo(st.EventRepo()),
		backend.WithRenderer(bridge),
		backend.WithLogger(logger),
	)

	gen, err := be.Generator(ctx)
	if err != nil {
		_ = bridge.Close()
		st.Close()
		closer.Close()
		return nil, fmt.Errorf("build generator: %w", err)
	}

	sess := session.New(gen, session.WithLogger(logger), session.WithModel(cfg.LLM.Model))
	logger.Debug("runtime ready",
		"provider", be.Provider(),
		"credential_ready", sess.Ready(),
		"config", c.configPath,
	)

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		bridge:    bridge,
		backend:   be,
		session:   sess,
		logCloser: closer,
	}, nil
}

func (r *runtime) Close() {
	if err := r.bridge.Close(); err != nil {
		r.logger.Warn("close sandbox", "error", err)
	}
	if err := r.store.Close(); err != nil {
		r.logger.Warn("close store", "error", err)
	}
	_ = r.logCloser.Close()
}

// tuiLogPath places the log next to the database so the terminal UI owns
// the screen.
func tuiLogPath(cfg *config.Config) (string, error) {
	out := strings.ToLower(strings.TrimSpace(cfg.Logging.Output))
	if out != "" && out != "stderr" && out != "stdout" {
		return cfg.Logging.Output, nil
	}
	dbPath, err := cfg.DBPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(dbPath), "mathsheet.log"), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
