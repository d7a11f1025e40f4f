package sandbox

import "time"

// Config controls the interpreter process.
type Config struct {
	// Python is the interpreter binary. It must have matplotlib and numpy.
	Python string

	// StartTimeout bounds interpreter startup including the plotting imports.
	StartTimeout time.Duration

	// RenderTimeout bounds a single render. A render that overruns kills
	// the interpreter; the next render starts a new one.
	RenderTimeout time.Duration

	// Isolated starts a fresh interpreter for every render.
	Isolated bool
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		Python:        "python3",
		StartTimeout:  60 * time.Second,
		RenderTimeout: 30 * time.Second,
	}
}
