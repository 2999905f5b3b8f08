package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath is a chain definition file (.hcl, .yaml, .yml) or a
	// directory searched recursively for them.
	ConfigPath string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// RunDuration stops the app after the given time. Zero runs until the
	// context is canceled.
	RunDuration time.Duration
	// StopTimeout bounds how long each chain may take to stop. Zero uses the
	// chain default.
	StopTimeout time.Duration
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.RunDuration < 0 {
		return nil, fmt.Errorf("run duration must not be negative, got %s", cfg.RunDuration)
	}
	if cfg.StopTimeout < 0 {
		return nil, fmt.Errorf("stop timeout must not be negative, got %s", cfg.StopTimeout)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
