package docker

import (
	containertypes "github.com/docker/docker/api/types/container"
	imageapi "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
)

// Snapshot is the engine inventory captured in one tick. Records are the
// engine's own API types, passed through unmodified.
type Snapshot struct {
	Containers []containertypes.Summary `json:"containers"`
	Images     []imageapi.Summary       `json:"images"`
	Networks   []network.Inspect        `json:"networks"`
}

// normalize replaces nil sequences with empty ones so they encode as [].
func (s Snapshot) normalize() Snapshot {
	if s.Containers == nil {
		s.Containers = []containertypes.Summary{}
	}
	if s.Images == nil {
		s.Images = []imageapi.Summary{}
	}
	if s.Networks == nil {
		s.Networks = []network.Inspect{}
	}
	return s
}
