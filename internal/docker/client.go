package docker

import (
	"context"
	"fmt"
	"strings"
	"time"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	imageapi "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"golang.org/x/sync/errgroup"

	"github.com/dockhand/statusagent/internal/logging"
)

// Client is the interface used by the agent for Docker inventory queries
type Client interface {
	ListContainers(ctx context.Context) ([]containertypes.Summary, error)
	ListImages(ctx context.Context) ([]imageapi.Summary, error)
	ListNetworks(ctx context.Context) ([]network.Inspect, error)
	// Snapshot runs the three list queries and returns them together. It
	// fails when any of the queries fails.
	Snapshot(ctx context.Context) (Snapshot, error)
	Close() error
}

// dockerAPI is the subset of the Docker SDK used by sdkClient
type dockerAPI interface {
	ContainerList(ctx context.Context, options containertypes.ListOptions) ([]containertypes.Summary, error)
	ImageList(ctx context.Context, options imageapi.ListOptions) ([]imageapi.Summary, error)
	NetworkList(ctx context.Context, options network.ListOptions) ([]network.Inspect, error)
	Close() error
}

// sdkClient is the production implementation using the official Docker SDK
type sdkClient struct {
	cli         dockerAPI
	labelFilter string
}

// NewClient returns an SDK-backed client for the engine listening on
// socketPath. An empty socketPath falls back to the Docker environment
// (DOCKER_HOST and friends). labelFilter, when set, restricts every list to
// objects carrying that label.
func NewClient(socketPath, labelFilter string) (Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if socketPath != "" {
		opts = append(opts, client.WithHost(socketHost(socketPath)))
	} else {
		opts = append(opts, client.FromEnv)
	}
	c, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &sdkClient{cli: c, labelFilter: labelFilter}, nil
}

// socketHost turns a bare socket path into a unix:// host URL.
func socketHost(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "unix://" + path
}

func (s *sdkClient) filters() filters.Args {
	if s.labelFilter == "" {
		return filters.NewArgs()
	}
	return filters.NewArgs(filters.Arg("label", s.labelFilter))
}

// ListContainers lists all containers, stopped ones included.
func (s *sdkClient) ListContainers(ctx context.Context) ([]containertypes.Summary, error) {
	list, err := s.cli.ContainerList(ctx, containertypes.ListOptions{All: true, Filters: s.filters()})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	return list, nil
}

// ListImages lists all images, intermediate layers included.
func (s *sdkClient) ListImages(ctx context.Context) ([]imageapi.Summary, error) {
	list, err := s.cli.ImageList(ctx, imageapi.ListOptions{All: true, Filters: s.filters()})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return list, nil
}

// ListNetworks lists all configured networks.
func (s *sdkClient) ListNetworks(ctx context.Context) ([]network.Inspect, error) {
	list, err := s.cli.NetworkList(ctx, network.ListOptions{Filters: s.filters()})
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	return list, nil
}

// Snapshot issues the three list queries concurrently and waits for all of
// them before returning.
func (s *sdkClient) Snapshot(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Containers, err = s.ListContainers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Images, err = s.ListImages(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Networks, err = s.ListNetworks(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap = snap.normalize()
	logging.Get().Debug().
		Int("containers", len(snap.Containers)).
		Int("images", len(snap.Images)).
		Int("networks", len(snap.Networks)).
		Dur("elapsed", time.Since(start)).
		Msg("collected docker inventory")
	return snap, nil
}

// Close releases the underlying SDK transport
func (s *sdkClient) Close() error {
	return s.cli.Close()
}
