package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Agent modes
const (
	// ModeInventory reports the Docker inventory to the status endpoint.
	ModeInventory = "inventory"
	// ModeProbe polls a plain HTTP endpoint and logs the body.
	ModeProbe = "probe"
)

const (
	defaultInventoryInterval = 15 * time.Second
	defaultProbeInterval     = 5 * time.Second
)

// Config holds runtime configuration for the agent
type Config struct {
	Mode string `json:"mode" yaml:"mode"`
	// Delay between the end of one tick and the start of the next. Zero picks the mode default.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// Docker engine control socket. Empty means use DOCKER_HOST / the SDK default.
	SocketPath string `json:"socket_path" yaml:"socket_path"`
	// Only report objects carrying this label (e.g. "com.example.service"). Empty reports everything.
	LabelFilter string `json:"label_filter" yaml:"label_filter"`

	StatusURL   string `json:"status_url" yaml:"status_url"`
	AgentToken  string `json:"agent_token" yaml:"agent_token"`
	AgentSecret string `json:"agent_secret" yaml:"agent_secret"`

	ProbeURL string `json:"probe_url" yaml:"probe_url"`

	// Zero leaves outbound calls bounded only by shutdown cancellation.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
	// Build and log the payload but never send it
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Metrics
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsPort    int  `json:"metrics_port" yaml:"metrics_port"`

	LogLevel string `json:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a sane default configuration
func DefaultConfig() *Config {
	return &Config{
		Mode:       ModeInventory,
		SocketPath: "/var/run/docker.sock",
		StatusURL:  "http://localhost:3000/api/v1/agent/status",
		ProbeURL:   "https://example.com/api",

		MetricsEnabled: false,
		MetricsPort:    9090,

		LogLevel: "info",
	}
}

// DefaultPollInterval returns the stock interval for a mode.
func DefaultPollInterval(mode string) time.Duration {
	if mode == ModeProbe {
		return defaultProbeInterval
	}
	return defaultInventoryInterval
}

// Interval returns the effective poll interval.
func (c *Config) Interval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval(c.Mode)
}

// Validate returns a list of non-fatal configuration warnings.
func (c *Config) Validate() []string {
	var warnings []string
	checks := []struct {
		cond bool
		msg  string
	}{
		{c.Mode != ModeInventory && c.Mode != ModeProbe, fmt.Sprintf("unknown mode %q (expected %q or %q)", c.Mode, ModeInventory, ModeProbe)},
		{c.PollInterval < 0, "negative poll interval; using the mode default"},
		{c.Mode == ModeInventory && c.AgentToken == "", "agent token is empty; status endpoint will likely reject reports"},
		{c.Mode == ModeInventory && c.AgentToken != "" && !isUUID(c.AgentToken), "agent token is not UUID-shaped"},
		{c.Mode == ModeInventory && !isHTTPURL(c.StatusURL), fmt.Sprintf("invalid status URL: %q", c.StatusURL)},
		{c.Mode == ModeProbe && !isHTTPURL(c.ProbeURL), fmt.Sprintf("invalid probe URL: %q", c.ProbeURL)},
	}
	for _, ch := range checks {
		if ch.cond {
			warnings = append(warnings, ch.msg)
		}
	}
	return warnings
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// LoadConfigFromFile loads config from a YAML/JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
