package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerAddr  string
	NotifyURL   string
	Username    string
	Token       string
	SessionFile string
	Output      string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerAddr:  getEnvOrDefault("WORDARENA_SERVER", "localhost:7777"),
		NotifyURL:   getEnvOrDefault("WORDARENA_NOTIFY", "ws://localhost:7778/events"),
		Username:    os.Getenv("WORDARENA_USERNAME"),
		Token:       os.Getenv("WORDARENA_TOKEN"),
		SessionFile: getEnvOrDefault("WORDARENA_SESSION_FILE", defaultSessionFile()),
		Output:      "text",
		Verbose:     false,
	}
}

type savedSession struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// LoadSession loads credentials from the session file if not already set
func (c *Config) LoadSession() error {
	if c.Username != "" && c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.SessionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No session file is fine
		}
		return err
	}

	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return err
	}
	if c.Username == "" {
		c.Username = saved.Username
	}
	if c.Token == "" {
		c.Token = saved.Token
	}
	return nil
}

// SaveSession persists credentials to the session file
func (c *Config) SaveSession(username, token string) error {
	c.Username = username
	c.Token = token

	dir := filepath.Dir(c.SessionFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(savedSession{Username: username, Token: token})
	if err != nil {
		return err
	}
	return os.WriteFile(c.SessionFile, data, 0600)
}

// ClearSession removes the session file
func (c *Config) ClearSession() error {
	c.Username = ""
	c.Token = ""
	err := os.Remove(c.SessionFile)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wordarena-session.json"
	}
	return filepath.Join(home, ".config", "wordarena", "session.json")
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
