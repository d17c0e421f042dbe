package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvProcessingWorkers      = "RHYTHM_PROCESSING_WORKERS"
	EnvProcessingPollInterval = "RHYTHM_PROCESSING_POLL_INTERVAL"
	EnvProcessingStuckAfter   = "RHYTHM_PROCESSING_STUCK_AFTER"
)

// ProcessingConfig holds document processing worker settings. Zero workers
// (only reachable through the environment) disables in-process processing.
type ProcessingConfig struct {
	Workers      int    `toml:"workers"`
	PollInterval string `toml:"poll_interval"`
	StuckAfter   string `toml:"stuck_after"`
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (c *ProcessingConfig) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// StuckAfterDuration returns StuckAfter as a time.Duration.
func (c *ProcessingConfig) StuckAfterDuration() time.Duration {
	d, _ := time.ParseDuration(c.StuckAfter)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ProcessingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ProcessingConfig) Merge(overlay *ProcessingConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.StuckAfter != "" {
		c.StuckAfter = overlay.StuckAfter
	}
}

func (c *ProcessingConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 2
	}
	if c.PollInterval == "" {
		c.PollInterval = "2s"
	}
	if c.StuckAfter == "" {
		c.StuckAfter = "5m"
	}
}

func (c *ProcessingConfig) loadEnv() {
	if v := os.Getenv(EnvProcessingWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvProcessingPollInterval); v != "" {
		c.PollInterval = v
	}
	if v := os.Getenv(EnvProcessingStuckAfter); v != "" {
		c.StuckAfter = v
	}
}

func (c *ProcessingConfig) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", c.Workers)
	}
	if d, err := time.ParseDuration(c.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid poll_interval: %q", c.PollInterval)
	}
	if d, err := time.ParseDuration(c.StuckAfter); err != nil || d <= 0 {
		return fmt.Errorf("invalid stuck_after: %q", c.StuckAfter)
	}
	return nil
}
