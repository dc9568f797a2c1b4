package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/docker/docker/api/types"
	registrytypes "github.com/docker/docker/api/types/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryURI(t *testing.T) {
	uri := RepositoryURI("123456789012", "us-west-2", "gothambuild")
	assert.Equal(t, "123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild", uri)

	t.Run("is deterministic per environment", func(t *testing.T) {
		assert.Equal(t, uri, RepositoryURI("123456789012", "us-west-2", "gothambuild"))
	})
}

func TestHost(t *testing.T) {
	assert.Equal(t, "123456789012.dkr.ecr.us-west-2.amazonaws.com",
		Host("123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild"))
	assert.Equal(t, "plainhost", Host("plainhost"))
}

func TestRef(t *testing.T) {
	assert.Equal(t, "repo.example/app:9f86d08", Ref("repo.example/app", "9f86d08"))
}

// fakeECR counts token requests and replays a canned token.
type fakeECR struct {
	token string
	err   error
	calls int
}

func (f *fakeECR) GetAuthorizationToken(context.Context, *ecr.GetAuthorizationTokenInput, ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ecr.GetAuthorizationTokenOutput{
		AuthorizationData: []ecrtypes.AuthorizationData{
			{AuthorizationToken: aws.String(f.token)},
		},
	}, nil
}

func TestAuthenticatorLogin(t *testing.T) {
	const host = "123456789012.dkr.ecr.us-west-2.amazonaws.com"
	token := base64.StdEncoding.EncodeToString([]byte("AWS:ecr-password"))

	t.Run("exchanges the token for an auth header", func(t *testing.T) {
		fake := &fakeECR{token: token}
		auth := NewAuthenticator(fake)

		header, err := auth.Login(context.Background(), host)
		require.NoError(t, err)

		decoded, err := base64.URLEncoding.DecodeString(header)
		require.NoError(t, err)

		var cfg registrytypes.AuthConfig
		require.NoError(t, json.Unmarshal(decoded, &cfg))
		assert.Equal(t, "AWS", cfg.Username)
		assert.Equal(t, "ecr-password", cfg.Password)
		assert.Equal(t, host, cfg.ServerAddress)
	})

	t.Run("caches tokens per host", func(t *testing.T) {
		fake := &fakeECR{token: token}
		auth := NewAuthenticator(fake)

		first, err := auth.Login(context.Background(), host)
		require.NoError(t, err)
		second, err := auth.Login(context.Background(), host)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, fake.calls)
	})

	t.Run("wraps API failures as auth errors", func(t *testing.T) {
		fake := &fakeECR{err: assert.AnError}
		auth := NewAuthenticator(fake)

		_, err := auth.Login(context.Background(), host)
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, host, authErr.Registry)
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		fake := &fakeECR{token: base64.StdEncoding.EncodeToString([]byte("no-separator"))}
		auth := NewAuthenticator(fake)

		_, err := auth.Login(context.Background(), host)
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
	})
}

// fakePushEngine implements engine.API for push tests.
type fakePushEngine struct {
	pushed  []string
	tagged  [][2]string
	tagErr  error
	pushErr map[string]error
	streams map[string]string
	auth    []string
}

func (f *fakePushEngine) ImageBuild(context.Context, io.Reader, types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	return types.ImageBuildResponse{}, nil
}

func (f *fakePushEngine) ImageTag(_ context.Context, source, target string) error {
	f.tagged = append(f.tagged, [2]string{source, target})
	return f.tagErr
}

func (f *fakePushEngine) ImagePush(_ context.Context, image string, options types.ImagePushOptions) (io.ReadCloser, error) {
	f.pushed = append(f.pushed, image)
	f.auth = append(f.auth, options.RegistryAuth)
	if err := f.pushErr[image]; err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(f.streams[image])), nil
}

func (f *fakePushEngine) ImageSave(context.Context, []string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func TestPusherRelease(t *testing.T) {
	const uri = "123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild"

	t.Run("pushes latest before the derived tag", func(t *testing.T) {
		fake := &fakePushEngine{streams: map[string]string{
			uri + ":latest":  `{"aux":{"Tag":"latest","Digest":"sha256:aaa","Size":10}}`,
			uri + ":9f86d08": `{"aux":{"Tag":"9f86d08","Digest":"sha256:aaa","Size":10}}`,
		}}

		result, err := NewPusher(fake).Release(context.Background(), uri, "9f86d08", "auth-header")
		require.NoError(t, err)

		assert.Equal(t, [][2]string{{uri + ":latest", uri + ":9f86d08"}}, fake.tagged)
		assert.Equal(t, []string{uri + ":latest", uri + ":9f86d08"}, fake.pushed)
		assert.Equal(t, []string{uri + ":latest", uri + ":9f86d08"}, result.Refs)
		assert.Equal(t, "sha256:aaa", result.Digests[uri+":latest"])
		assert.Equal(t, []string{"auth-header", "auth-header"}, fake.auth)
	})

	t.Run("failed latest push aborts before the derived push", func(t *testing.T) {
		fake := &fakePushEngine{pushErr: map[string]error{uri + ":latest": assert.AnError}}

		_, err := NewPusher(fake).Release(context.Background(), uri, "9f86d08", "auth-header")
		var pushErr *PushError
		require.ErrorAs(t, err, &pushErr)
		assert.Equal(t, uri+":latest", pushErr.Ref)
		assert.Equal(t, []string{uri + ":latest"}, fake.pushed)
	})

	t.Run("in-stream push error is fatal", func(t *testing.T) {
		fake := &fakePushEngine{streams: map[string]string{
			uri + ":latest": `{"errorDetail":{"message":"denied"},"error":"denied"}`,
		}}

		_, err := NewPusher(fake).Release(context.Background(), uri, "9f86d08", "auth-header")
		var pushErr *PushError
		require.ErrorAs(t, err, &pushErr)
		assert.Equal(t, []string{uri + ":latest"}, fake.pushed)
	})

	t.Run("tag failure aborts before any push", func(t *testing.T) {
		fake := &fakePushEngine{tagErr: assert.AnError}

		_, err := NewPusher(fake).Release(context.Background(), uri, "9f86d08", "auth-header")
		var pushErr *PushError
		require.ErrorAs(t, err, &pushErr)
		assert.Empty(t, fake.pushed)
	})
}
