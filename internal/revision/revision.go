// Package revision resolves the source revision from the CI environment
// and derives the image version tag from it.
//
// The pipeline never computes revisions itself; the CI system is the
// source of truth and this package only reads what it exposes.
package revision

import "os"

// Environment variables read from the CI environment.
const (
	// EnvSourceVersion is CodeBuild's resolved source revision.
	EnvSourceVersion = "CODEBUILD_RESOLVED_SOURCE_VERSION"

	// EnvBuildID is CodeBuild's unique build identifier.
	EnvBuildID = "CODEBUILD_BUILD_ID"

	// EnvSourceVersionOverride overrides the resolved revision, for use
	// outside CodeBuild (local runs, other CI systems).
	EnvSourceVersionOverride = "GOTHAM_SOURCE_VERSION"
)

// FallbackTag is the tag used when no revision is available.
const FallbackTag = "latest"

// tagLen is the number of leading revision characters used as the tag.
const tagLen = 7

// Revision describes the resolved source state of one pipeline run.
type Revision struct {
	// SourceVersion is the full resolved revision identifier.
	// Empty when the CI environment does not provide one.
	SourceVersion string

	// BuildID is the CI build identifier, informational only.
	BuildID string
}

// Resolve reads the revision from the environment.
// The override variable wins over the CodeBuild one.
func Resolve() Revision {
	source := os.Getenv(EnvSourceVersionOverride)
	if source == "" {
		source = os.Getenv(EnvSourceVersion)
	}
	return Revision{
		SourceVersion: source,
		BuildID:       os.Getenv(EnvBuildID),
	}
}

// Tag returns the derived image tag for this revision.
func (r Revision) Tag() string {
	return DeriveTag(r.SourceVersion)
}

// DeriveTag derives the image version tag from a revision identifier:
// the first 7 characters of the revision, or "latest" when the revision
// is empty. Shorter revisions are used whole. Same input always yields
// the same tag.
func DeriveTag(rev string) string {
	if rev == "" {
		return FallbackTag
	}
	if len(rev) <= tagLen {
		return rev
	}
	return rev[:tagLen]
}
