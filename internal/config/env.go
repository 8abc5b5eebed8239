package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides reads configuration values from environment variables and
// overrides fields in the provided Config. Returns an error if parsing fails.
//
// Environment variables supported:
// - AGENT_MODE ("inventory" or "probe")
// - AGENT_POLL_INTERVAL (duration, e.g. "15s")
// - AGENT_SOCKET_PATH (string, e.g. /var/run/docker.sock)
// - AGENT_LABEL_FILTER (string)
// - AGENT_STATUS_URL (string)
// - AGENT_TOKEN (string)
// - AGENT_SECRET (string)
// - AGENT_PROBE_URL (string)
// - AGENT_REQUEST_TIMEOUT (duration, e.g. "10s")
// - AGENT_DRY_RUN (bool)
// - AGENT_METRICS_ENABLED (bool, "true"/"false")
// - AGENT_METRICS_PORT (int, e.g. 9090)
// - AGENT_LOG_LEVEL, AGENT_LOG_FILE (string)
func ApplyEnvOverrides(cfg *Config) error {
	if err := applyBasicEnv(cfg); err != nil {
		return err
	}
	if err := applyEndpointEnv(cfg); err != nil {
		return err
	}
	if err := applyMetricsEnv(cfg); err != nil {
		return err
	}
	applyLogEnv(cfg)
	return nil
}

func applyBasicEnv(cfg *Config) error {
	if v := os.Getenv("AGENT_MODE"); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("AGENT_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AGENT_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv("AGENT_SOCKET_PATH"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("AGENT_LABEL_FILTER"); v != "" {
		cfg.LabelFilter = v
	}
	return setBoolEnv("AGENT_DRY_RUN", func(b bool) { cfg.DryRun = b })
}

// applyEndpointEnv handles the status endpoint, its credentials and the probe URL
func applyEndpointEnv(cfg *Config) error {
	if v := os.Getenv("AGENT_STATUS_URL"); v != "" {
		cfg.StatusURL = v
	}
	if v := os.Getenv("AGENT_TOKEN"); v != "" {
		cfg.AgentToken = v
	}
	if v := os.Getenv("AGENT_SECRET"); v != "" {
		cfg.AgentSecret = v
	}
	if v := os.Getenv("AGENT_PROBE_URL"); v != "" {
		cfg.ProbeURL = v
	}
	if v := os.Getenv("AGENT_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AGENT_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func applyMetricsEnv(cfg *Config) error {
	if err := setBoolEnv("AGENT_METRICS_ENABLED", func(b bool) { cfg.MetricsEnabled = b }); err != nil {
		return err
	}
	if v := os.Getenv("AGENT_METRICS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AGENT_METRICS_PORT: %w", err)
		}
		cfg.MetricsPort = p
	}
	return nil
}

func applyLogEnv(cfg *Config) {
	if v := os.Getenv("AGENT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AGENT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

// setBoolEnv is a small helper to parse boolean environment variables
func setBoolEnv(env string, setter func(bool)) error {
	if v := os.Getenv(env); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		setter(b)
	}
	return nil
}
