// Package engine wraps the Docker Engine API surface the pipeline
// needs: image build, tag, push and save, plus decoding of the JSON
// message stream those operations emit.
package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// API is the subset of the Docker Engine client used by the pipeline.
// The concrete *client.Client satisfies it; tests substitute fakes.
type API interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageTag(ctx context.Context, source, target string) error
	ImagePush(ctx context.Context, image string, options types.ImagePushOptions) (io.ReadCloser, error)
	ImageSave(ctx context.Context, images []string) (io.ReadCloser, error)
}

// NewClient connects to the local Docker engine using the standard
// environment (DOCKER_HOST et al.) with API version negotiation.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connecting to docker engine: %w", err)
	}
	return cli, nil
}
