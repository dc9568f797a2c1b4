package cmd

import (
	"errors"
	"fmt"

	"github.com/gothamlabs/gothambuild/internal/buildstage"
	"github.com/gothamlabs/gothambuild/internal/registry"
)

// ErrConfigInvalid marks configuration validation failures.
var ErrConfigInvalid = errors.New("invalid configuration")

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// WrapConfig wraps a configuration error with ErrConfigInvalid.
func WrapConfig(err error) error {
	return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
}

// ExitCodeFromError maps an error onto the exit code contract.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var (
		testErr    *buildstage.TestFailureError
		compileErr *buildstage.CompileFailureError
		authErr    *registry.AuthError
		pushErr    *registry.PushError
	)
	switch {
	case errors.As(err, &testErr):
		return ExitTestFailure
	case errors.As(err, &compileErr):
		return ExitCompileFailure
	case errors.As(err, &authErr):
		return ExitAuthFailure
	case errors.As(err, &pushErr):
		return ExitPushFailure
	case errors.Is(err, ErrConfigInvalid):
		return ExitConfigInvalid
	default:
		return ExitGeneralError
	}
}
