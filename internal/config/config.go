// Package config loads the server configuration from a JSON file with
// environment-variable overrides for deployment-specific values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full server configuration.
type Config struct {
	// Game protocol listener
	TCPPort        int `json:"tcpPort"`
	WorkerPoolSize int `json:"workerPoolSize"`

	// Notification and share channels
	NotifyPort       int    `json:"notifyPort"`
	MulticastAddress string `json:"multicastAddress"`
	MulticastPort    int    `json:"multicastPort"`

	// Word rotation
	WordsFilePath        string `json:"wordsFilePath"`
	SecretWordTimeoutSec int    `json:"secretWordTimeout"`

	// Storage. UseSnapshotDatabase selects the snapshot backend; otherwise
	// DatabaseURL must point at a reachable database.
	UseSnapshotDatabase  bool   `json:"useSnapshotDatabase"`
	SnapshotDatabasePath string `json:"snapshotDatabasePath"`
	DatabaseURL          string `json:"databaseUrl"`
	AutoCommitDatabase   bool   `json:"autoCommitDatabase"`

	// Diagnostics
	Verbose bool `json:"verbose"`
	Debug   bool `json:"debug"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		TCPPort:              7777,
		WorkerPoolSize:       8,
		NotifyPort:           7778,
		MulticastAddress:     "239.255.1.1",
		MulticastPort:        7779,
		WordsFilePath:        "data/words.txt",
		SecretWordTimeoutSec: 600,
		UseSnapshotDatabase:  true,
		SnapshotDatabasePath: "data/state.json",
		AutoCommitDatabase:   false,
	}
}

// Load reads the JSON file at path (missing path keeps defaults) and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SecretWordTimeout returns the rotation timeout as a duration.
func (c *Config) SecretWordTimeout() time.Duration {
	return time.Duration(c.SecretWordTimeoutSec) * time.Second
}

func (c *Config) applyEnv() {
	c.TCPPort = getEnvAsInt("WORDARENA_TCP_PORT", c.TCPPort)
	c.NotifyPort = getEnvAsInt("WORDARENA_NOTIFY_PORT", c.NotifyPort)
	c.DatabaseURL = getEnv("WORDARENA_DATABASE_URL", c.DatabaseURL)
	c.WordsFilePath = getEnv("WORDARENA_WORDS_FILE", c.WordsFilePath)
	c.SnapshotDatabasePath = getEnv("WORDARENA_SNAPSHOT_PATH", c.SnapshotDatabasePath)
}

func (c *Config) validate() error {
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("workerPoolSize must be at least 1")
	}
	if c.SecretWordTimeoutSec < 1 {
		return fmt.Errorf("secretWordTimeout must be at least 1 second")
	}
	if !c.UseSnapshotDatabase && c.DatabaseURL == "" {
		return fmt.Errorf("databaseUrl is required without useSnapshotDatabase")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
