package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dockhand/statusagent/internal/config"
	"github.com/dockhand/statusagent/internal/daemon"
	"github.com/dockhand/statusagent/internal/docker"
	"github.com/dockhand/statusagent/internal/logging"
	"github.com/dockhand/statusagent/internal/metrics"
	"github.com/dockhand/statusagent/internal/probe"
	"github.com/dockhand/statusagent/internal/report"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Run(context.Background(), os.Args); err != nil {
		log.Fatalf("agent failed: %v", err)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:  "statusagent",
		Usage: "Periodically report Docker inventory (or probe an HTTP endpoint)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to YAML config file"},
			&cli.StringFlag{Name: "mode", Usage: "inventory or probe"},
			&cli.DurationFlag{Name: "poll-interval", Usage: "Delay between ticks (default 15s inventory, 5s probe)"},
			&cli.StringFlag{Name: "socket", Usage: "Docker engine socket path"},
			&cli.StringFlag{Name: "status-url", Usage: "Status endpoint receiving inventory reports"},
			&cli.StringFlag{Name: "probe-url", Usage: "Endpoint polled in probe mode"},
			&cli.BoolFlag{Name: "run-once", Usage: "run a single tick and exit"},
			&cli.BoolFlag{Name: "dry-run", Usage: "collect and log the payload without sending it"},
		},
		Action: run,
	}
}

func run(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cleanup := initLogging(cfg)
	defer cleanup()

	initMetrics(cfg)

	task, closeTask, err := buildTask(cfg)
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("failed to set up agent")
	}
	defer closeTask()

	d := daemon.New(cfg, task)
	if cmd.Bool("run-once") {
		logging.Get().Info().Msg("run-once: performing a single tick")
		return d.RunOnce()
	}
	startDaemonAndWait(d)
	return nil
}

// loadConfig merges defaults < file < environment < CLI flags
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		c, err := config.LoadConfigFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed loading config: %w", err)
		}
		cfg = c
	}

	if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment configuration: %w", err)
	}

	if cmd.IsSet("mode") {
		cfg.Mode = cmd.String("mode")
	}
	if cmd.IsSet("poll-interval") {
		cfg.PollInterval = cmd.Duration("poll-interval")
	}
	if cmd.IsSet("socket") {
		cfg.SocketPath = cmd.String("socket")
	}
	if cmd.IsSet("status-url") {
		cfg.StatusURL = cmd.String("status-url")
	}
	if cmd.IsSet("probe-url") {
		cfg.ProbeURL = cmd.String("probe-url")
	}
	if cmd.IsSet("dry-run") {
		cfg.DryRun = cmd.Bool("dry-run")
	}
	return cfg, nil
}

// initLogging initializes the log subsystem and returns a cleanup func
func initLogging(cfg *config.Config) func() {
	cleanup, err := logging.Init(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return cleanup
}

// initMetrics starts the optional metrics server
func initMetrics(cfg *config.Config) {
	if !cfg.MetricsEnabled {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.PromHandler())
		mux.Handle("/status", metrics.JSONHandler())
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		logging.Get().Info().Str("addr", addr).Msg("starting metrics server")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Get().Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

// buildTask wires the poll task for the configured mode and returns a closer for its resources
func buildTask(cfg *config.Config) (daemon.Task, func(), error) {
	switch cfg.Mode {
	case config.ModeProbe:
		return &daemon.ProbeTask{Fetcher: probe.New(cfg.ProbeURL, cfg.RequestTimeout)}, func() {}, nil
	case config.ModeInventory:
		ensureDockerSocketAccessible(cfg.SocketPath)
		dCli, err := docker.NewClient(cfg.SocketPath, cfg.LabelFilter)
		if err != nil {
			return nil, nil, err
		}
		task := &daemon.InventoryTask{
			Source:   dCli,
			Reporter: report.NewSender(cfg.StatusURL, cfg.AgentToken, cfg.AgentSecret, cfg.RequestTimeout, cfg.DryRun),
		}
		return task, func() { _ = dCli.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

// ensureDockerSocketAccessible wraps checkDockerSocketAccess and logs appropriately
func ensureDockerSocketAccessible(path string) {
	if path == "" {
		return
	}
	if err := checkDockerSocketAccess(path); err != nil {
		if os.IsPermission(err) {
			logging.Get().Warn().Str("socket", path).Msg("permission denied accessing docker socket: ensure the agent user is in the docker group")
		} else {
			logging.Get().Warn().Err(err).Str("socket", path).Msg("problem accessing docker socket; continuing but ticks may fail")
		}
	}
}

// startDaemonAndWait races the poll loop against SIGINT/SIGTERM
func startDaemonAndWait(d *daemon.Daemon) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	finished := make(chan struct{})
	go func() {
		d.Start()
		close(finished)
	}()

	select {
	case <-sig:
		logging.Get().Info().Msg("shutting down agent")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		d.Stop(shutdownCtx)
	case <-finished:
	}
}
