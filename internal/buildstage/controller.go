// Package buildstage implements the Build Stage Controller: it turns a
// source tree plus a set of scoped build secrets into a minimal runtime
// image, with the subject program's test suite as a build gate.
package buildstage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/archive"

	"github.com/gothamlabs/gothambuild/internal/dockerfile"
	"github.com/gothamlabs/gothambuild/internal/engine"
	"github.com/gothamlabs/gothambuild/internal/output"
	"github.com/gothamlabs/gothambuild/internal/secrets"
)

// definitionName is the generated build definition's filename inside
// the build context. Removed again once the build completes.
const definitionName = "Dockerfile.gothambuild"

// Controller drives one build stage against the Docker engine.
type Controller struct {
	api engine.API
}

// New creates a Controller on top of an engine client.
func New(api engine.API) *Controller {
	return &Controller{api: api}
}

// Options describes one build-stage invocation.
type Options struct {
	// ContextDir is the source tree to build.
	ContextDir string

	// Definition is the generated two-stage build definition.
	Definition []byte

	// ImageRef is the reference the built image is named with,
	// conventionally "<repository-uri>:latest".
	ImageRef string

	// Secrets is the per-invocation credential store. It is consumed
	// here and must not be handed to any later step.
	Secrets *secrets.Store
}

// Result describes a successful build stage.
type Result struct {
	// ImageID is the engine's ID for the produced image.
	ImageID string

	// ImageRef is the reference the image was tagged with.
	ImageRef string
}

// Build runs the build stage: test gate, release compile, secret
// purge, runtime-stage assembly. Any gate failure is fatal and typed
// (TestFailureError, CompileFailureError, StageError); no partial
// artifact survives a failure.
func (c *Controller) Build(ctx context.Context, opts Options) (*Result, error) {
	log := output.StepLogger("build")

	for _, name := range opts.Secrets.Missing() {
		// Tolerated degraded mode: the step runs with an empty value.
		// Surfaced loudly so a broken test configuration is visible.
		log.Warn("build secret not set, continuing with empty value", "secret", name)
	}

	if err := dockerfile.Verify(opts.Definition, opts.Secrets.Names()); err != nil {
		return nil, err
	}

	defPath := filepath.Join(opts.ContextDir, definitionName)
	if err := os.WriteFile(defPath, opts.Definition, 0o644); err != nil {
		return nil, fmt.Errorf("writing build definition: %w", err)
	}
	defer os.Remove(defPath)

	buildCtx, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{})
	if err != nil {
		return nil, fmt.Errorf("packing build context: %w", err)
	}
	defer buildCtx.Close()

	response, err := c.api.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Dockerfile:  definitionName,
		Tags:        []string{opts.ImageRef},
		BuildArgs:   opts.Secrets.BuildArgs(),
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return nil, fmt.Errorf("starting image build: %w", err)
	}
	defer response.Body.Close()

	stream, err := engine.Drain(response.Body, engine.DrainOptions{
		Markers: []string{dockerfile.MarkerTestGate, dockerfile.MarkerCompile},
		Redact:  opts.Secrets.Redact,
		LogLine: func(line string) { log.Debug(line) },
	})
	if err != nil {
		return nil, classify(err, opts.Secrets)
	}

	log.Debug("image built", "id", stream.ImageID, "ref", opts.ImageRef)
	return &Result{ImageID: stream.ImageID, ImageRef: opts.ImageRef}, nil
}

// classify maps an engine stream error onto the failure taxonomy using
// the last stage marker seen before the error.
func classify(err error, store *secrets.Store) error {
	var streamErr *engine.StreamError
	if !errors.As(err, &streamErr) {
		return err
	}

	msg := store.Redact(streamErr.Message)
	switch streamErr.LastMarker {
	case dockerfile.MarkerTestGate:
		return &TestFailureError{Output: msg}
	case dockerfile.MarkerCompile:
		return &CompileFailureError{Output: msg}
	default:
		return &StageError{Output: msg}
	}
}
