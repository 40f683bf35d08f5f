// Package config loads server settings from an optional YAML file and the
// environment, and builds the application logger from them.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting.
type Config struct {
	Addr          string        `yaml:"addr"`
	DataDir       string        `yaml:"data_dir"`
	MediaRoot     string        `yaml:"media_root"`
	BaseURL       string        `yaml:"base_url"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	ResetTTL      time.Duration `yaml:"reset_ttl"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	SecureCookies bool          `yaml:"secure_cookies"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Addr:       ":8080",
		DataDir:    "data",
		MediaRoot:  "media",
		BaseURL:    "http://localhost:8080",
		SessionTTL: 14 * 24 * time.Hour,
		ResetTTL:   time.Hour,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BLOG_ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("BLOG_DATA_DIR"); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup("BLOG_MEDIA_ROOT"); ok && v != "" {
		c.MediaRoot = v
	}
	if v, ok := lookup("BLOG_BASE_URL"); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup("BLOG_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("BLOG_SECURE_COOKIES"); ok && v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BLOG_SECURE_COOKIES: %w", err)
		}
		c.SecureCookies = secure
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.SessionTTL <= 0 || c.ResetTTL <= 0 {
		return errors.New("session_ttl and reset_ttl must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// DBPath is where the Badger files live.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "blog.db")
}

// NewLogger builds the logger described by the config, writing to out.
func (c *Config) NewLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
