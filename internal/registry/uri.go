// Package registry handles the image registry side of a release:
// deriving the repository URI from the account identity, authenticating
// against ECR, and pushing the release tags in order.
package registry

import (
	"fmt"
	"strings"
)

// RepositoryURI derives the ECR repository URI from the account
// identity. Constant per environment: the same account, region and
// repository always yield the same URI.
func RepositoryURI(account, region, repository string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/%s", account, region, repository)
}

// Host returns the registry host of a repository URI.
func Host(repositoryURI string) string {
	if i := strings.IndexByte(repositoryURI, '/'); i >= 0 {
		return repositoryURI[:i]
	}
	return repositoryURI
}

// Ref joins a repository URI and a tag into an image reference.
func Ref(repositoryURI, tag string) string {
	return repositoryURI + ":" + tag
}
