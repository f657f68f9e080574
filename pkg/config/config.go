// Package config carries the tunable limits and defaults for an editing run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds every tunable the orchestrator and its components consume.
// Durations are stored as seconds so the on-disk JSON stays plain.
type Config struct {
	// Orchestration limits.
	MaxIterations           int     `json:"max_iterations"`
	TotalTimeoutSeconds     int     `json:"total_timeout_seconds"`
	IterationTimeoutSeconds int     `json:"iteration_timeout_seconds"`
	IntentThreshold         float64 `json:"intent_threshold"`
	TranscriptKeepTurns     int     `json:"transcript_keep_turns"`
	MaxPromptChars          int     `json:"max_prompt_chars"`

	// Checkpointing.
	MaxCheckpoints int `json:"max_checkpoints"`

	// Circuit breaker (shared across concurrent runs).
	CircuitThreshold       int `json:"circuit_threshold"`
	CircuitCooldownSeconds int `json:"circuit_cooldown_seconds"`

	// Tool retry policy.
	RetryBaseDelayMillis int     `json:"retry_base_delay_millis"`
	RetryMultiplier      float64 `json:"retry_multiplier"`

	// Oracle selection.
	Provider    string  `json:"provider"` // "openai" or "ollama"
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	BaseURL     string  `json:"base_url,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxIterations:           12,
		TotalTimeoutSeconds:     600,
		IterationTimeoutSeconds: 120,
		IntentThreshold:         0.6,
		TranscriptKeepTurns:     6,
		MaxPromptChars:          24000,
		MaxCheckpoints:          8,
		CircuitThreshold:        3,
		CircuitCooldownSeconds:  60,
		RetryBaseDelayMillis:    500,
		RetryMultiplier:         2.0,
		Provider:                "openai",
		Model:                   "gpt-4o-mini",
		Temperature:             0.2,
	}
}

// Load reads a JSON config file and overlays it onto the defaults. A missing
// file is not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = filepath.Join(".autoedit", "config.json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TotalTimeout is the whole-run deadline.
func (c *Config) TotalTimeout() time.Duration {
	return time.Duration(c.TotalTimeoutSeconds) * time.Second
}

// IterationTimeout bounds a single oracle call.
func (c *Config) IterationTimeout() time.Duration {
	return time.Duration(c.IterationTimeoutSeconds) * time.Second
}

// CircuitCooldown is how long an open circuit stays open before it
// automatically closes again.
func (c *Config) CircuitCooldown() time.Duration {
	return time.Duration(c.CircuitCooldownSeconds) * time.Second
}

// RetryBaseDelay is the first backoff delay between tool retry attempts.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMillis) * time.Millisecond
}
