package buildstage

import "fmt"

// TestFailureError indicates the test gate failed. No artifact exists
// and the pipeline must not proceed.
type TestFailureError struct {
	// Output is the engine's error text for the failed step.
	Output string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test gate failed: %s", e.Output)
}

// CompileFailureError indicates the release compile failed after the
// test gate passed.
type CompileFailureError struct {
	Output string
}

func (e *CompileFailureError) Error() string {
	return fmt.Sprintf("release compile failed: %s", e.Output)
}

// StageError indicates a build failure outside the gated steps
// (base image pull, context transfer, stage assembly).
type StageError struct {
	Output string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("build stage failed: %s", e.Output)
}
