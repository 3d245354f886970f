package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RunPath string // .hcl, .yaml or .yml run file

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// WorkerCount of zero runs partitions serially.
	WorkerCount int
	// StrictKernel fails the run when the gridding kernel is unavailable
	// instead of producing placeholder results.
	StrictKernel bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.RunPath == "" {
		return nil, errors.New("RunPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("WorkerCount must not be negative, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("HealthcheckPort %d is out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
