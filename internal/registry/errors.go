package registry

import "fmt"

// AuthError indicates registry authentication failed. Fatal: the
// pipeline aborts before any build or push.
type AuthError struct {
	Registry string
	Cause    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("registry auth failed for %s: %v", e.Registry, e.Cause)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// PushError indicates a tag push failed. Fatal: the release is
// incomplete and no descriptor may be emitted.
type PushError struct {
	Ref   string
	Cause error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push failed for %s: %v", e.Ref, e.Cause)
}

func (e *PushError) Unwrap() error {
	return e.Cause
}
