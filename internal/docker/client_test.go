package docker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	containertypes "github.com/docker/docker/api/types/container"
	imageapi "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDockerAPI implements the subset of Docker client methods used by sdkClient
type fakeDockerAPI struct {
	containers []containertypes.Summary
	images     []imageapi.Summary
	networks   []network.Inspect

	containerErr error
	imageErr     error
	networkErr   error

	lastContainerOpts containertypes.ListOptions
	lastImageOpts     imageapi.ListOptions
	lastNetworkOpts   network.ListOptions
	closed            atomic.Bool
}

func (f *fakeDockerAPI) ContainerList(_ context.Context, options containertypes.ListOptions) ([]containertypes.Summary, error) {
	f.lastContainerOpts = options
	return f.containers, f.containerErr
}

func (f *fakeDockerAPI) ImageList(_ context.Context, options imageapi.ListOptions) ([]imageapi.Summary, error) {
	f.lastImageOpts = options
	return f.images, f.imageErr
}

func (f *fakeDockerAPI) NetworkList(_ context.Context, options network.ListOptions) ([]network.Inspect, error) {
	f.lastNetworkOpts = options
	return f.networks, f.networkErr
}

func (f *fakeDockerAPI) Close() error {
	f.closed.Store(true)
	return nil
}

func TestSnapshotCollectsAllInventories(t *testing.T) {
	fake := &fakeDockerAPI{
		containers: []containertypes.Summary{{ID: "c1", State: "running"}, {ID: "c2", State: "exited"}},
		images:     []imageapi.Summary{{ID: "sha256:img"}},
	}
	s := &sdkClient{cli: fake}

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Containers, 2)
	assert.Len(t, snap.Images, 1)
	assert.NotNil(t, snap.Networks, "nil network list must be normalized")
	assert.Empty(t, snap.Networks)

	assert.True(t, fake.lastContainerOpts.All, "containers must include stopped ones")
	assert.True(t, fake.lastImageOpts.All, "images must include all layers")
	assert.Equal(t, 0, fake.lastContainerOpts.Filters.Len())
}

func TestSnapshotEncodesEmptyListsAsArrays(t *testing.T) {
	s := &sdkClient{cli: &fakeDockerAPI{}}
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	b, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"containers":[],"images":[],"networks":[]}`, string(b))
}

func TestSnapshotFailsWhenAnyQueryFails(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeDockerAPI
		want string
	}{
		{"containers", &fakeDockerAPI{containerErr: errors.New("socket missing")}, "list containers"},
		{"images", &fakeDockerAPI{imageErr: errors.New("boom")}, "list images"},
		{"networks", &fakeDockerAPI{networkErr: errors.New("boom")}, "list networks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sdkClient{cli: tt.fake}
			_, err := s.Snapshot(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLabelFilterAppliesToAllQueries(t *testing.T) {
	fake := &fakeDockerAPI{}
	s := &sdkClient{cli: fake, labelFilter: "com.example.service"}
	_, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	for name, args := range map[string]interface{ Get(string) []string }{
		"containers": fake.lastContainerOpts.Filters,
		"images":     fake.lastImageOpts.Filters,
		"networks":   fake.lastNetworkOpts.Filters,
	} {
		assert.Equal(t, []string{"com.example.service"}, args.Get("label"), name)
	}
}

func TestSocketHost(t *testing.T) {
	assert.Equal(t, "unix:///var/run/docker.sock", socketHost("/var/run/docker.sock"))
	assert.Equal(t, "tcp://127.0.0.1:2375", socketHost("tcp://127.0.0.1:2375"))
}

func TestNewClientWithSocketPath(t *testing.T) {
	cli, err := NewClient("/tmp/does-not-need-to-exist.sock", "")
	require.NoError(t, err, "client creation must not dial the socket")
	require.NoError(t, cli.Close())
}

func TestClose(t *testing.T) {
	fake := &fakeDockerAPI{}
	s := &sdkClient{cli: fake}
	require.NoError(t, s.Close())
	assert.True(t, fake.closed.Load())
}
