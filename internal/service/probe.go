package service

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
)

// Prober checks that the daemon answers after a restart.
type Prober interface {
	Probe(ctx context.Context) (string, error)
}

// DockerProber pings the daemon through the Engine API, honouring
// DOCKER_HOST and friends.
type DockerProber struct{}

// Probe returns the API version reported by the daemon.
func (DockerProber) Probe(ctx context.Context) (string, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return "", fmt.Errorf("create docker client: %w", err)
	}
	defer cli.Close()

	ping, err := cli.Ping(ctx)
	if err != nil {
		if client.IsErrConnectionFailed(err) {
			return "", fmt.Errorf("docker daemon not reachable: %w", err)
		}
		return "", fmt.Errorf("ping docker daemon: %w", err)
	}
	return ping.APIVersion, nil
}
