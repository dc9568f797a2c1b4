// Package cmd provides CLI command implementations.
package cmd

// Exit codes. CI gates branch on these, so the mapping is a contract:
// a failing test suite and a broken compile must stay distinguishable
// from infrastructure trouble.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitTestFailure indicates the in-build test gate failed.
	ExitTestFailure = 2

	// ExitCompileFailure indicates the release compile failed.
	ExitCompileFailure = 3

	// ExitAuthFailure indicates registry authentication failed.
	ExitAuthFailure = 4

	// ExitPushFailure indicates an image push failed.
	ExitPushFailure = 5

	// ExitConfigInvalid indicates the configuration failed validation.
	ExitConfigInvalid = 6
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitTestFailure:
		return "Test Failure"
	case ExitCompileFailure:
		return "Compile Failure"
	case ExitAuthFailure:
		return "Auth Failure"
	case ExitPushFailure:
		return "Push Failure"
	case ExitConfigInvalid:
		return "Config Invalid"
	default:
		return "Unknown"
	}
}
