// Package pipeline orchestrates a release: authenticate to the
// registry, run the build stage, tag and push the image, and emit the
// deployment descriptor.
//
// The pipeline is a strict result chain: each step's output feeds the
// next and the first failure short-circuits the run. Nothing reads
// back from downstream and nothing is retried.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gothamlabs/gothambuild/internal/buildstage"
	"github.com/gothamlabs/gothambuild/internal/config"
	"github.com/gothamlabs/gothambuild/internal/descriptor"
	"github.com/gothamlabs/gothambuild/internal/dockerfile"
	"github.com/gothamlabs/gothambuild/internal/output"
	"github.com/gothamlabs/gothambuild/internal/registry"
	"github.com/gothamlabs/gothambuild/internal/revision"
	"github.com/gothamlabs/gothambuild/internal/secrets"
)

// Authenticator logs into the registry host.
type Authenticator interface {
	Login(ctx context.Context, host string) (string, error)
}

// Builder runs the build stage.
type Builder interface {
	Build(ctx context.Context, opts buildstage.Options) (*buildstage.Result, error)
}

// Pusher tags and pushes the release references.
type Pusher interface {
	Release(ctx context.Context, repositoryURI, derivedTag, authHeader string) (*registry.PushResult, error)
}

// Scanner checks the produced image for leaked build secrets.
type Scanner interface {
	Scan(ctx context.Context, imageRef string, store *secrets.Store) ([]buildstage.Finding, error)
}

// Options describes one release run.
type Options struct {
	// Revision is the resolved source state from the CI environment.
	Revision revision.Revision

	// SkipLayerScan disables the post-build secret scan of the image.
	SkipLayerScan bool

	// DescriptorPath overrides the configured descriptor output path.
	DescriptorPath string
}

// Result describes a release run.
type Result struct {
	// RunID identifies this run in logs.
	RunID string

	// State is the final pipeline state.
	State State

	// FailedIn names the state a failed run died in. Empty on success.
	FailedIn State

	// Tag is the derived version tag.
	Tag string

	// ImageRef is the derived-tag image reference named by the descriptor.
	ImageRef string

	// Pushed are the pushed references in push order.
	Pushed []string

	// DescriptorPath is the written descriptor's path. Empty unless the
	// run reached DescriptorWritten.
	DescriptorPath string

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// Pipeline runs a full release.
type Pipeline interface {
	Release(ctx context.Context, opts Options) (*Result, error)
}

// pipeline implements Pipeline over injected step implementations.
type pipeline struct {
	cfg     *config.Config
	auth    Authenticator
	builder Builder
	pusher  Pusher
	scanner Scanner
}

// New creates a Pipeline. cfg must already be defaulted and validated.
func New(cfg *config.Config, auth Authenticator, builder Builder, pusher Pusher, scanner Scanner) Pipeline {
	return &pipeline{
		cfg:     cfg,
		auth:    auth,
		builder: builder,
		pusher:  pusher,
		scanner: scanner,
	}
}

// Release executes the state machine:
//
//	Idle → Authenticating → Building → Tagging → Pushing →
//	DescriptorWritten → Done
//
// Any step failure transitions to Failed and halts; the partial Result
// names the failed state. The descriptor step is reached only when
// both pushes succeeded, so the platform is never pointed at an image
// that does not exist.
func (p *pipeline) Release(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID: uuid.NewString()[:8],
		State: StateIdle,
		Tag:   opts.Revision.Tag(),
	}

	log := output.Logger.With("run", result.RunID)
	log.Info("starting release",
		"revision", opts.Revision.SourceVersion,
		"build", opts.Revision.BuildID,
		"tag", result.Tag,
	)

	uri := registry.RepositoryURI(
		p.cfg.Registry.Account,
		p.cfg.Registry.Region,
		p.cfg.Registry.Repository,
	)
	result.ImageRef = registry.Ref(uri, result.Tag)

	p.transition(result, StateAuthenticating)
	authHeader, err := p.auth.Login(ctx, registry.Host(uri))
	if err != nil {
		return p.fail(result, start, err)
	}

	p.transition(result, StateBuilding)
	built, err := Build(ctx, p.cfg, p.builder, p.scanner, registry.Ref(uri, "latest"), opts.SkipLayerScan)
	if err != nil {
		return p.fail(result, start, err)
	}
	log.Debug("build stage complete", "image", built.ImageID)

	p.transition(result, StateTagging)
	p.transition(result, StatePushing)
	pushed, err := p.pusher.Release(ctx, uri, result.Tag, authHeader)
	if err != nil {
		return p.fail(result, start, err)
	}
	result.Pushed = pushed.Refs

	path := opts.DescriptorPath
	if path == "" {
		path = p.cfg.Descriptor.Path
	}
	d := descriptor.New(result.ImageRef, p.cfg.Image.Port)
	if err := d.Write(path); err != nil {
		return p.fail(result, start, err)
	}
	result.DescriptorPath = path
	p.transition(result, StateDescriptorWritten)

	p.transition(result, StateDone)
	result.Duration = time.Since(start)
	log.Info("release complete",
		"tag", result.Tag,
		"descriptor", result.DescriptorPath,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

// Build runs the build stage with a credential store scoped to this
// call. The store never escapes: it is purged before Build returns.
// The produced image is tagged imageRef and, unless skipScan is set,
// scanned for leaked secret values before being accepted.
func Build(ctx context.Context, cfg *config.Config, builder Builder, scanner Scanner, imageRef string, skipScan bool) (*buildstage.Result, error) {
	store := secrets.FromEnv(cfg.Build.Secrets)
	defer store.Purge()

	definition := dockerfile.Generate(dockerfile.Spec{
		BuilderImage:     cfg.Build.BuilderImage,
		RuntimeImage:     cfg.Build.RuntimeImage,
		SecretNames:      store.Names(),
		TestCommand:      cfg.Build.TestCommand,
		CompileCommand:   cfg.Build.CompileCommand,
		ArtifactPath:     cfg.Build.ArtifactPath,
		EntrypointScript: cfg.Build.Entrypoint,
		RuntimePackages:  cfg.Build.RuntimePackages,
		ExposedPort:      cfg.Image.Port,
	})

	built, err := builder.Build(ctx, buildstage.Options{
		ContextDir: cfg.Build.Context,
		Definition: definition,
		ImageRef:   imageRef,
		Secrets:    store,
	})
	if err != nil {
		return nil, err
	}

	if scanner != nil && !skipScan {
		findings, err := scanner.Scan(ctx, built.ImageRef, store)
		if err != nil {
			return nil, err
		}
		if len(findings) > 0 {
			for _, f := range findings {
				output.Error("secret material in image layer", "entry", f.Entry, "secret", f.Secret)
			}
			return nil, buildstage.ErrSecretInLayer
		}
	}

	return built, nil
}

func (p *pipeline) transition(result *Result, next State) {
	output.Debug("pipeline transition", "run", result.RunID, "from", string(result.State), "to", string(next))
	result.State = next
}

func (p *pipeline) fail(result *Result, start time.Time, err error) (*Result, error) {
	result.FailedIn = result.State
	result.State = StateFailed
	result.Duration = time.Since(start)
	output.Error("release failed", "run", result.RunID, "in", string(result.FailedIn), "error", err)
	return result, err
}
