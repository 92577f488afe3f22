package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Board    BoardConfig    `yaml:"board"`
	Stock    StockConfig    `yaml:"stock"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

// BoardConfig tunes the reconciliation engine.
type BoardConfig struct {
	// PollIntervalSeconds is the poll-fallback tick used until the push
	// channel is confirmed live.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// RevertWindowSeconds bounds how long a committed transition stays
	// undoable.
	RevertWindowSeconds int `yaml:"revert_window_seconds"`

	PruneIntervalSeconds   int `yaml:"prune_interval_seconds"`
	ActivityDisplayLimit   int `yaml:"activity_display_limit"`
	MutationTimeoutSeconds int `yaml:"mutation_timeout_seconds"`
}

// StockConfig tunes the stock ledger's retry behavior.
type StockConfig struct {
	AttemptTimeoutSeconds int `yaml:"attempt_timeout_seconds"`

	// MaxRetries counts retries after the initial try; the default 3 gives
	// four attempts with the 1s/2s/4s backoff.
	MaxRetries int `yaml:"max_retries"`

	BackoffBaseSeconds int `yaml:"backoff_base_seconds"`
}

// Default returns the reference tunables; Load overlays the file on top.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "canteen", Database: "canteen"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		HTTP:     HTTPConfig{Port: 3000},
		Board: BoardConfig{
			PollIntervalSeconds:    1,
			RevertWindowSeconds:    25,
			PruneIntervalSeconds:   1,
			ActivityDisplayLimit:   20,
			MutationTimeoutSeconds: 10,
		},
		Stock: StockConfig{
			AttemptTimeoutSeconds: 8,
			MaxRetries:            3,
			BackoffBaseSeconds:    1,
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Board.PollIntervalSeconds < 1 {
		return fmt.Errorf("board.poll_interval_seconds must be >= 1")
	}
	if c.Board.RevertWindowSeconds < 1 {
		return fmt.Errorf("board.revert_window_seconds must be >= 1")
	}
	if c.Board.MutationTimeoutSeconds < 1 {
		return fmt.Errorf("board.mutation_timeout_seconds must be >= 1")
	}
	if c.Stock.MaxRetries < 1 {
		return fmt.Errorf("stock.max_retries must be >= 1")
	}
	if c.Stock.AttemptTimeoutSeconds < 1 {
		return fmt.Errorf("stock.attempt_timeout_seconds must be >= 1")
	}
	return nil
}

func (c BoardConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c BoardConfig) RevertWindow() time.Duration {
	return time.Duration(c.RevertWindowSeconds) * time.Second
}

func (c BoardConfig) PruneInterval() time.Duration {
	return time.Duration(c.PruneIntervalSeconds) * time.Second
}

func (c BoardConfig) MutationTimeout() time.Duration {
	return time.Duration(c.MutationTimeoutSeconds) * time.Second
}

func (c StockConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSeconds) * time.Second
}

func (c StockConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseSeconds) * time.Second
}
