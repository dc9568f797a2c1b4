package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothamlabs/gothambuild/internal/buildstage"
	"github.com/gothamlabs/gothambuild/internal/config"
	"github.com/gothamlabs/gothambuild/internal/dockerfile"
	"github.com/gothamlabs/gothambuild/internal/registry"
	"github.com/gothamlabs/gothambuild/internal/revision"
	"github.com/gothamlabs/gothambuild/internal/secrets"
)

type fakeAuth struct {
	header string
	err    error
	calls  int
}

func (f *fakeAuth) Login(context.Context, string) (string, error) {
	f.calls++
	return f.header, f.err
}

type fakeBuilder struct {
	err   error
	opts  []buildstage.Options
	store *secrets.Store
}

func (f *fakeBuilder) Build(_ context.Context, opts buildstage.Options) (*buildstage.Result, error) {
	f.opts = append(f.opts, opts)
	f.store = opts.Secrets
	if f.err != nil {
		return nil, f.err
	}
	return &buildstage.Result{ImageID: "sha256:deadbeef", ImageRef: opts.ImageRef}, nil
}

type fakePusher struct {
	err   error
	calls []string
	auth  []string
}

func (f *fakePusher) Release(_ context.Context, uri, tag, authHeader string) (*registry.PushResult, error) {
	f.calls = append(f.calls, tag)
	f.auth = append(f.auth, authHeader)
	if f.err != nil {
		return nil, f.err
	}
	return &registry.PushResult{
		Refs: []string{uri + ":latest", uri + ":" + tag},
	}, nil
}

type fakeScanner struct {
	findings []buildstage.Finding
	err      error
	calls    int
}

func (f *fakeScanner) Scan(context.Context, string, *secrets.Store) ([]buildstage.Finding, error) {
	f.calls++
	return f.findings, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Registry.Account = "123456789012"
	cfg.Registry.Region = "us-west-2"
	cfg.Build.Context = t.TempDir()
	cfg.Descriptor.Path = filepath.Join(t.TempDir(), "Dockerrun.aws.json")
	return cfg
}

func testRevision() revision.Revision {
	return revision.Revision{SourceVersion: "9f86d081884c7d659a2feaa0c55ad015", BuildID: "gotham:42"}
}

func TestReleaseSucceeds(t *testing.T) {
	cfg := testConfig(t)
	auth := &fakeAuth{header: "auth-header"}
	builder := &fakeBuilder{}
	pusher := &fakePusher{}
	scanner := &fakeScanner{}

	result, err := New(cfg, auth, builder, pusher, scanner).
		Release(context.Background(), Options{Revision: testRevision()})
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Empty(t, result.FailedIn)
	assert.Len(t, result.RunID, 8)
	assert.Equal(t, "9f86d08", result.Tag)
	assert.Equal(t, "123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild:9f86d08", result.ImageRef)

	t.Run("pushes latest before the derived tag", func(t *testing.T) {
		assert.Equal(t, []string{
			"123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild:latest",
			"123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild:9f86d08",
		}, result.Pushed)
	})

	t.Run("hands the auth header to the pusher", func(t *testing.T) {
		assert.Equal(t, []string{"auth-header"}, pusher.auth)
	})

	t.Run("writes the descriptor", func(t *testing.T) {
		assert.Equal(t, cfg.Descriptor.Path, result.DescriptorPath)
		content, err := os.ReadFile(result.DescriptorPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"Name":"123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild:9f86d08"`)
		assert.Contains(t, string(content), `"ContainerPort":8000`)
	})

	t.Run("builds a definition that passes verification", func(t *testing.T) {
		require.Len(t, builder.opts, 1)
		opts := builder.opts[0]
		assert.Equal(t, "123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild:latest", opts.ImageRef)
		assert.NoError(t, dockerfile.Verify(opts.Definition, cfg.Build.Secrets))
	})

	t.Run("scans the image and purges the store", func(t *testing.T) {
		assert.Equal(t, 1, scanner.calls)
		for _, sec := range builder.store.Secrets() {
			assert.Empty(t, sec.Value)
		}
	})
}

func TestReleasePurgesSecretsAfterBuild(t *testing.T) {
	t.Setenv("GOTHAM_DB_PASS_W", "write-pass")

	cfg := testConfig(t)
	builder := &fakeBuilder{}

	_, err := New(cfg, &fakeAuth{header: "h"}, builder, &fakePusher{}, nil).
		Release(context.Background(), Options{Revision: testRevision()})
	require.NoError(t, err)

	require.NotNil(t, builder.store)
	for _, sec := range builder.store.Secrets() {
		assert.Empty(t, sec.Value, "secret %s survived the purge", sec.Name)
	}
}

func TestReleaseFailsFast(t *testing.T) {
	t.Run("auth failure stops before the build", func(t *testing.T) {
		cfg := testConfig(t)
		builder := &fakeBuilder{}

		result, err := New(cfg, &fakeAuth{err: assert.AnError}, builder, &fakePusher{}, nil).
			Release(context.Background(), Options{Revision: testRevision()})
		require.Error(t, err)

		assert.Equal(t, StateFailed, result.State)
		assert.Equal(t, StateAuthenticating, result.FailedIn)
		assert.Empty(t, builder.opts)
	})

	t.Run("failed test gate pushes nothing and writes no descriptor", func(t *testing.T) {
		cfg := testConfig(t)
		builder := &fakeBuilder{err: &buildstage.TestFailureError{Output: "2 tests failed"}}
		pusher := &fakePusher{}

		result, err := New(cfg, &fakeAuth{header: "h"}, builder, pusher, nil).
			Release(context.Background(), Options{Revision: testRevision()})

		var testErr *buildstage.TestFailureError
		require.ErrorAs(t, err, &testErr)
		assert.Equal(t, StateFailed, result.State)
		assert.Equal(t, StateBuilding, result.FailedIn)
		assert.Empty(t, pusher.calls)
		assert.NoFileExists(t, cfg.Descriptor.Path)
	})

	t.Run("push failure writes no descriptor", func(t *testing.T) {
		cfg := testConfig(t)
		pusher := &fakePusher{err: &registry.PushError{Ref: "x:latest", Cause: assert.AnError}}

		result, err := New(cfg, &fakeAuth{header: "h"}, &fakeBuilder{}, pusher, nil).
			Release(context.Background(), Options{Revision: testRevision()})
		require.Error(t, err)

		assert.Equal(t, StatePushing, result.FailedIn)
		assert.NoFileExists(t, cfg.Descriptor.Path)
	})

	t.Run("secret found in a layer aborts before any push", func(t *testing.T) {
		cfg := testConfig(t)
		scanner := &fakeScanner{findings: []buildstage.Finding{
			{Entry: "layer.tar", Secret: "GOTHAM_DB_PASS_W"},
		}}
		pusher := &fakePusher{}

		result, err := New(cfg, &fakeAuth{header: "h"}, &fakeBuilder{}, pusher, scanner).
			Release(context.Background(), Options{Revision: testRevision()})
		require.ErrorIs(t, err, buildstage.ErrSecretInLayer)

		assert.Equal(t, StateBuilding, result.FailedIn)
		assert.Empty(t, pusher.calls)
	})
}

func TestReleaseSkipsLayerScan(t *testing.T) {
	cfg := testConfig(t)
	scanner := &fakeScanner{findings: []buildstage.Finding{{Entry: "layer.tar", Secret: "X"}}}

	_, err := New(cfg, &fakeAuth{header: "h"}, &fakeBuilder{}, &fakePusher{}, scanner).
		Release(context.Background(), Options{Revision: testRevision(), SkipLayerScan: true})
	require.NoError(t, err)
	assert.Zero(t, scanner.calls)
}

func TestReleaseTagFallsBackToLatest(t *testing.T) {
	cfg := testConfig(t)
	pusher := &fakePusher{}

	result, err := New(cfg, &fakeAuth{header: "h"}, &fakeBuilder{}, pusher, nil).
		Release(context.Background(), Options{Revision: revision.Revision{}})
	require.NoError(t, err)

	assert.Equal(t, "latest", result.Tag)
	assert.Equal(t, []string{"latest"}, pusher.calls)
}

func TestReleaseDescriptorPathOverride(t *testing.T) {
	cfg := testConfig(t)
	override := filepath.Join(t.TempDir(), "out", "Dockerrun.aws.json")

	result, err := New(cfg, &fakeAuth{header: "h"}, &fakeBuilder{}, &fakePusher{}, nil).
		Release(context.Background(), Options{Revision: testRevision(), DescriptorPath: override})
	require.NoError(t, err)

	assert.Equal(t, override, result.DescriptorPath)
	assert.FileExists(t, override)
	assert.NoFileExists(t, cfg.Descriptor.Path)
}
