// Package config loads and validates the optional .pullserver YAML file.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".pullserver"

// Default values. They reproduce the behavior of a bare `git pull` trigger
// listening on the loopback interface.
const (
	DefaultAddr       = "127.0.0.1:10000"
	DefaultNoOpStatus = http.StatusAlreadyReported
	DefaultHistory    = 20
)

// DefaultCommand is the synchronization command run on each request.
var DefaultCommand = []string{"git", "pull"}

// Serialization modes for concurrent synchronize calls.
const (
	SerializeOff    = "off"    // every call runs the command immediately
	SerializeQueue  = "queue"  // one call at a time, others wait
	SerializeReject = "reject" // one call at a time, others are refused
)

// Config holds the parsed .pullserver configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Addr           string   `yaml:"addr"`
	Command        []string `yaml:"command"`
	NoOpStatus     int      `yaml:"noop_status"` // 204 or 208
	RawTimeout     string   `yaml:"timeout"`     // e.g. "5m"; empty means no deadline
	MaxOutput      int      `yaml:"max_output"`  // bytes per stream; 0 means unlimited
	Serialize      string   `yaml:"serialize"`   // off, queue or reject
	History        int      `yaml:"history"`     // number of reports kept for inspection
	RawDetectHeads *bool    `yaml:"detect_heads"`
}

// ListenAddr returns the configured listen address or the default.
func (c *Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return DefaultAddr
}

// Argv returns the configured synchronization command or the default.
func (c *Config) Argv() []string {
	if len(c.Command) > 0 {
		return c.Command
	}
	return DefaultCommand
}

// NoOpStatusCode returns the HTTP status used when nothing changed.
func (c *Config) NoOpStatusCode() int {
	if c.NoOpStatus != 0 {
		return c.NoOpStatus
	}
	return DefaultNoOpStatus
}

// Timeout returns the configured command timeout. Zero means the command
// runs until it exits on its own.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// SerializeMode returns the configured serialization mode or SerializeOff.
func (c *Config) SerializeMode() string {
	if c.Serialize != "" {
		return c.Serialize
	}
	return SerializeOff
}

// HistorySize returns the number of reports kept in memory.
func (c *Config) HistorySize() int {
	if c.History > 0 {
		return c.History
	}
	return DefaultHistory
}

// DetectHeads reports whether the repository HEAD is compared before and
// after each synchronization. Enabled unless explicitly turned off.
func (c *Config) DetectHeads() bool {
	if c.RawDetectHeads != nil {
		return *c.RawDetectHeads
	}
	return true
}

// Validate rejects values that cannot be honored.
func (c *Config) Validate() error {
	switch c.NoOpStatusCode() {
	case http.StatusNoContent, http.StatusAlreadyReported:
	default:
		return fmt.Errorf("noop_status must be 204 or 208, got %d", c.NoOpStatus)
	}
	switch c.SerializeMode() {
	case SerializeOff, SerializeQueue, SerializeReject:
	default:
		return fmt.Errorf("serialize must be one of off, queue, reject; got %q", c.Serialize)
	}
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("timeout must not be negative, got %s", d)
		}
	}
	if c.MaxOutput < 0 {
		return fmt.Errorf("max_output must not be negative, got %d", c.MaxOutput)
	}
	if len(c.Command) > 0 && c.Command[0] == "" {
		return fmt.Errorf("command must start with a program name")
	}
	return nil
}

// Load reads the .pullserver file from dir. If no file exists, a default
// Config is returned.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName), false)
}

// LoadFile reads the configuration at path. When required is false a
// missing file yields a default Config.
func LoadFile(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}
