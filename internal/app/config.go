package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePath is the HCL pipeline configuration file.
	PipelinePath string

	// Targets restricts execution to the named steps and their transitive
	// dependencies. Empty means the full pipeline.
	Targets []string
	// Skip removes exactly the named steps from the execution order.
	Skip []string
	// ForceRerun recomputes every step, ignoring caches.
	ForceRerun bool
	// RenderOnly prints the pipeline graph instead of running it.
	RenderOnly bool

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates a Config value.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 4
	}
	return &cfg, nil
}
