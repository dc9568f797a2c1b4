package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	registrytypes "github.com/docker/docker/api/types/registry"
	gocache "github.com/patrickmn/go-cache"

	"github.com/gothamlabs/gothambuild/internal/output"
)

// ECR authorization tokens are valid for 12 hours; cache them a little
// short of that so a token never expires mid-push.
const (
	tokenTTL   = 11 * time.Hour
	tokenSweep = 30 * time.Minute
)

// ECRAPI is the subset of the ECR client the authenticator uses.
type ECRAPI interface {
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

// NewECRClient builds an ECR client for the region using the ambient
// AWS credential chain (the CI role in CodeBuild).
func NewECRClient(ctx context.Context, region string) (*ecr.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return ecr.NewFromConfig(cfg), nil
}

// Authenticator exchanges the platform's AWS credentials for docker
// registry auth headers, caching tokens per registry host.
type Authenticator struct {
	api    ECRAPI
	tokens *gocache.Cache
}

// NewAuthenticator creates an Authenticator on top of an ECR client.
func NewAuthenticator(api ECRAPI) *Authenticator {
	return &Authenticator{
		api:    api,
		tokens: gocache.New(tokenTTL, tokenSweep),
	}
}

// Login returns the X-Registry-Auth header for the registry host.
func (a *Authenticator) Login(ctx context.Context, host string) (string, error) {
	if cached, ok := a.tokens.Get(host); ok {
		output.Debug("using cached registry token", "registry", host)
		return cached.(string), nil
	}

	resp, err := a.api.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return "", &AuthError{Registry: host, Cause: err}
	}
	if len(resp.AuthorizationData) == 0 || resp.AuthorizationData[0].AuthorizationToken == nil {
		return "", &AuthError{Registry: host, Cause: fmt.Errorf("no authorization data returned")}
	}

	header, err := encodeAuthHeader(*resp.AuthorizationData[0].AuthorizationToken, host)
	if err != nil {
		return "", &AuthError{Registry: host, Cause: err}
	}

	a.tokens.Set(host, header, gocache.DefaultExpiration)
	output.Debug("registry login succeeded", "registry", host)
	return header, nil
}

// encodeAuthHeader turns an ECR authorization token (base64
// "user:password") into the docker X-Registry-Auth header value.
func encodeAuthHeader(token, host string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decoding authorization token: %w", err)
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", fmt.Errorf("authorization token is not user:password shaped")
	}

	auth := registrytypes.AuthConfig{
		Username:      user,
		Password:      pass,
		ServerAddress: host,
	}
	buf, err := json.Marshal(auth)
	if err != nil {
		return "", fmt.Errorf("encoding auth config: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
