package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/dockhand/statusagent/internal/docker"
	"github.com/dockhand/statusagent/internal/logging"
	"github.com/dockhand/statusagent/internal/metrics"
	"github.com/dockhand/statusagent/internal/report"
)

// Task is one unit of polling work run on every tick.
type Task interface {
	Name() string
	Tick(ctx context.Context) error
}

// Snapshotter produces the current engine inventory
type Snapshotter interface {
	Snapshot(ctx context.Context) (docker.Snapshot, error)
}

// Reporter delivers a snapshot and returns the remote response body
type Reporter interface {
	Send(ctx context.Context, snap docker.Snapshot) (string, error)
}

// Fetcher returns the body of a plain HTTP request
type Fetcher interface {
	URL() string
	Fetch(ctx context.Context) (string, error)
}

// InventoryTask collects the Docker inventory and reports it.
type InventoryTask struct {
	Source   Snapshotter
	Reporter Reporter
}

func (t *InventoryTask) Name() string { return "inventory" }

// Tick fetches a fresh snapshot and hands exactly that snapshot to the reporter.
func (t *InventoryTask) Tick(ctx context.Context) error {
	snap, err := t.Source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("collect inventory: %w", err)
	}
	body, err := t.Reporter.Send(ctx, snap)
	if errors.Is(err, report.ErrDryRun) {
		return nil
	}
	if err != nil {
		metrics.IncReportFailed()
		return fmt.Errorf("send status update: %w", err)
	}
	metrics.IncReportSent()
	logging.Get().Info().Str("body", body).Msg("received response")
	return nil
}

// ProbeTask GETs a fixed endpoint and logs the body.
type ProbeTask struct {
	Fetcher Fetcher
}

func (t *ProbeTask) Name() string { return "probe" }

func (t *ProbeTask) Tick(ctx context.Context) error {
	body, err := t.Fetcher.Fetch(ctx)
	if err != nil {
		metrics.IncReportFailed()
		return fmt.Errorf("probe %s: %w", t.Fetcher.URL(), err)
	}
	metrics.IncReportSent()
	logging.Get().Info().Str("url", t.Fetcher.URL()).Str("body", body).Msg("received response")
	return nil
}
