// Package config provides YAML-based configuration loading for askline.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level askline configuration, loaded from config.yaml.
type Config struct {
	Platform    string          `yaml:"platform"` // "telegram" or "discord"
	Token       string          `yaml:"token"`
	GroupChatID string          `yaml:"group_chat_id"` // moderation destination
	Admins      []string        `yaml:"admins"`        // administrator user IDs

	QuestionCooldownSeconds int `yaml:"question_cooldown_seconds"`
	BroadcastDelayMillis    int `yaml:"broadcast_delay_ms"`
	ConversationTTLMinutes  int `yaml:"conversation_ttl_minutes"` // -1 = never evict

	DB        DBConfig        `yaml:"db"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DBConfig holds connection settings for the MySQL server.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DashboardConfig controls the optional read-only operator API.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsAdmin reports whether userID is in the administrator allow-list.
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Platform == "" {
		c.Platform = "telegram"
	}
	if c.QuestionCooldownSeconds == 0 {
		c.QuestionCooldownSeconds = 60
	}
	if c.BroadcastDelayMillis == 0 {
		c.BroadcastDelayMillis = 50
	}
	if c.ConversationTTLMinutes == 0 {
		c.ConversationTTLMinutes = 30
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Database == "" {
		c.DB.Database = "askline"
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Platform != "telegram" && c.Platform != "discord" {
		errs = append(errs, fmt.Sprintf("platform %q is not supported", c.Platform))
	}
	if c.Token == "" {
		errs = append(errs, "token is required")
	}
	if c.GroupChatID == "" {
		errs = append(errs, "group_chat_id is required")
	}
	if len(c.Admins) == 0 {
		errs = append(errs, "at least one admin is required")
	}
	if c.QuestionCooldownSeconds < 0 {
		errs = append(errs, "question_cooldown_seconds must not be negative")
	}
	if c.ConversationTTLMinutes < -1 {
		errs = append(errs, "conversation_ttl_minutes must be -1, or zero or greater")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
