package dockerfile

import (
	"fmt"
	"strings"
)

// VerifyError describes a violated secret-scoping rule in a build
// definition.
type VerifyError struct {
	// Rule names the violated rule.
	Rule string

	// Detail explains what was found.
	Detail string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("build definition check %q failed: %s", e.Rule, e.Detail)
}

// Verify statically checks the secret-scoping rules of a build
// definition:
//
//   - every secret is declared as a builder-stage ARG, and nowhere else
//   - the builder stage purges every secret from its environment before
//     the runtime stage begins
//   - no runtime-stage instruction references a secret name
//   - the runtime stage copies nothing beyond the artifact and the
//     entry-point script
//
// These checks run against the definition the pipeline is about to
// build, so a regression in generation fails before any image exists.
func Verify(content []byte, secretNames []string) error {
	builder, runtime, err := splitStages(string(content))
	if err != nil {
		return err
	}

	for _, name := range secretNames {
		if !hasInstruction(builder, "ARG", name) {
			return &VerifyError{
				Rule:   "secret-arg-in-builder",
				Detail: fmt.Sprintf("secret %s has no ARG in the builder stage", name),
			}
		}
		if !purgesSecret(builder, name) {
			return &VerifyError{
				Rule:   "secret-purged-before-transition",
				Detail: fmt.Sprintf("builder stage never overwrites %s with an empty value", name),
			}
		}
		for _, line := range runtime {
			if strings.Contains(line, name) {
				return &VerifyError{
					Rule:   "no-secret-in-runtime-stage",
					Detail: fmt.Sprintf("runtime stage references secret %s: %q", name, line),
				}
			}
		}
	}

	copies := 0
	for _, line := range runtime {
		if strings.HasPrefix(line, "COPY") {
			copies++
		}
	}
	if copies > 2 {
		return &VerifyError{
			Rule:   "runtime-copies-artifact-and-entrypoint-only",
			Detail: fmt.Sprintf("runtime stage has %d COPY instructions, expected at most 2", copies),
		}
	}

	return nil
}

// splitStages separates the definition into builder-stage and
// runtime-stage instruction lines. Comments and blanks are dropped.
func splitStages(content string) (builder, runtime []string, err error) {
	stage := -1
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "FROM ") {
			stage++
		}
		switch stage {
		case 0:
			builder = append(builder, line)
		case 1:
			runtime = append(runtime, line)
		}
	}
	if stage < 1 {
		return nil, nil, &VerifyError{
			Rule:   "two-stage-build",
			Detail: fmt.Sprintf("expected 2 stages, found %d", stage+1),
		}
	}
	return builder, runtime, nil
}

// hasInstruction reports whether any line starts with the instruction
// and mentions the name.
func hasInstruction(lines []string, instruction, name string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, instruction+" ") && strings.Contains(line, name) {
			return true
		}
	}
	return false
}

// purgesSecret reports whether an ENV instruction overwrites the secret
// with an empty value.
func purgesSecret(lines []string, name string) bool {
	for _, line := range lines {
		if !strings.HasPrefix(line, "ENV ") {
			continue
		}
		if strings.Contains(line, name+`=""`) || strings.Contains(line, name+"=''") {
			return true
		}
	}
	return false
}
