// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeout     = 25 * time.Second
	DefaultConcurrency = 4
	DefaultLogLevel    = "info"
)

// Config holds the network and logging settings shared by extract and crawl.
type Config struct {
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	Proxy       string        `yaml:"proxy"`
	Insecure    bool          `yaml:"insecure"`
	Concurrency int           `yaml:"concurrency"`
	CacheSize   int           `yaml:"cache_size"`
	LogLevel    string        `yaml:"log_level"`
}

// LoadConfig reads a YAML config file. An empty path yields an empty
// Config; callers still apply env, defaults and validation.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if path == "" {
		return &config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// ApplyEnv overrides fields from TSMAP_* variables, loading a .env file from
// the working directory first if there is one.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if v := strings.TrimSpace(os.Getenv("TSMAP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TSMAP_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv("TSMAP_USER_AGENT")); v != "" {
		c.UserAgent = v
	}
	if v := strings.TrimSpace(os.Getenv("TSMAP_PROXY")); v != "" {
		c.Proxy = v
	}
	if v := strings.TrimSpace(os.Getenv("TSMAP_INSECURE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TSMAP_INSECURE: %w", err)
		}
		c.Insecure = b
	}
	if v := strings.TrimSpace(os.Getenv("TSMAP_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TSMAP_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := strings.TrimSpace(os.Getenv("TSMAP_CACHE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TSMAP_CACHE_SIZE: %w", err)
		}
		c.CacheSize = n
	}
	if v := strings.TrimSpace(os.Getenv("TSMAP_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	return nil
}

// ApplyDefaults sets default values for unspecified configuration options
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout: %s (must be positive)", c.Timeout)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d (must be at least 1)", c.Concurrency)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("invalid cache_size: %d", c.CacheSize)
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return fmt.Errorf("invalid proxy scheme: %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid proxy URL: missing host")
		}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level. Call after Validate.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
