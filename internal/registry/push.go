package registry

import (
	"context"

	charmlog "github.com/charmbracelet/log"
	"github.com/docker/docker/api/types"

	"github.com/gothamlabs/gothambuild/internal/engine"
	"github.com/gothamlabs/gothambuild/internal/output"
)

// Pusher tags and pushes a built image to the registry.
type Pusher struct {
	api engine.API
}

// NewPusher creates a Pusher on top of an engine client.
func NewPusher(api engine.API) *Pusher {
	return &Pusher{api: api}
}

// PushResult describes a completed release push.
type PushResult struct {
	// Refs are the pushed references in push order.
	Refs []string

	// Digests maps each pushed reference to its manifest digest, when
	// the registry reported one.
	Digests map[string]string
}

// Release re-tags the latest image with the derived tag and pushes
// both references, latest first. Both tags point at the same image
// content; both pushes must succeed for the release to be complete.
// The first failure aborts with a *PushError.
func (p *Pusher) Release(ctx context.Context, repositoryURI, derivedTag, authHeader string) (*PushResult, error) {
	log := output.StepLogger("push")

	latestRef := Ref(repositoryURI, "latest")
	derivedRef := Ref(repositoryURI, derivedTag)

	// Second tag on the identical image content; no rebuild.
	if err := p.api.ImageTag(ctx, latestRef, derivedRef); err != nil {
		return nil, &PushError{Ref: derivedRef, Cause: err}
	}
	log.Debug("tagged", "source", latestRef, "target", derivedRef)

	result := &PushResult{Digests: make(map[string]string)}
	for _, ref := range []string{latestRef, derivedRef} {
		digest, err := p.push(ctx, ref, authHeader, log)
		if err != nil {
			return nil, err
		}
		result.Refs = append(result.Refs, ref)
		if digest != "" {
			result.Digests[ref] = digest
		}
		log.Info("pushed", "ref", ref, "digest", digest)
	}

	return result, nil
}

func (p *Pusher) push(ctx context.Context, ref, authHeader string, log *charmlog.Logger) (string, error) {
	rc, err := p.api.ImagePush(ctx, ref, types.ImagePushOptions{RegistryAuth: authHeader})
	if err != nil {
		return "", &PushError{Ref: ref, Cause: err}
	}
	defer rc.Close()

	stream, err := engine.Drain(rc, engine.DrainOptions{
		LogLine: func(line string) { log.Debug(line) },
	})
	if err != nil {
		return "", &PushError{Ref: ref, Cause: err}
	}
	return stream.Digest, nil
}
