// Package dockerfile generates and verifies the two-stage build
// definition the pipeline feeds to the Docker engine.
//
// The builder stage runs the subject program's test suite as a build
// gate, compiles the release binary, and purges every build credential
// from its environment. The runtime stage starts from a minimal base
// and receives exactly two files: the compiled artifact and the
// entry-point script.
package dockerfile

import (
	"fmt"
	"strings"
)

// Stage markers emitted ahead of the gated RUN instructions. The build
// stream is scanned for the last marker seen to classify a failed build
// as a test failure or a compile failure.
const (
	MarkerTestGate = "[gothambuild] test gate"
	MarkerCompile  = "[gothambuild] release compile"
)

// Spec describes one generated build definition.
type Spec struct {
	// BuilderImage is the base image of the build stage.
	BuilderImage string

	// RuntimeImage is the minimal base image of the runtime stage.
	RuntimeImage string

	// SecretNames are the build-argument names of the injected secrets,
	// in declaration order.
	SecretNames []string

	// TestCommand runs the subject program's test suite. Any failure
	// aborts the build before an artifact exists.
	TestCommand string

	// CompileCommand produces the release binary.
	CompileCommand string

	// ArtifactPath is the compiled binary's path inside the build stage,
	// relative to the source root.
	ArtifactPath string

	// EntrypointScript is the entry-point script path in the build
	// context, copied verbatim into the runtime stage.
	EntrypointScript string

	// RuntimePackages are installed fresh in the runtime stage, never
	// inherited from the build stage.
	RuntimePackages []string

	// ExposedPort is the service port declared by the runtime image.
	ExposedPort int
}

// Generate renders the build definition for a spec.
// Output is deterministic: the same spec always yields the same bytes.
func Generate(spec Spec) []byte {
	var b strings.Builder

	b.WriteString("# syntax=docker/dockerfile:1\n\n")
	fmt.Fprintf(&b, "FROM %s AS builder\n\n", spec.BuilderImage)

	// Secrets enter as build arguments and are mirrored into the stage
	// environment so the test suite can read them.
	for _, name := range spec.SecretNames {
		fmt.Fprintf(&b, "ARG %s\n", name)
	}
	if len(spec.SecretNames) > 0 {
		b.WriteString(envLine(spec.SecretNames, true))
		b.WriteString("\n")
	}

	b.WriteString("\nWORKDIR /src\nCOPY . .\n\n")

	fmt.Fprintf(&b, "RUN echo %q && %s\n\n", MarkerTestGate, spec.TestCommand)
	fmt.Fprintf(&b, "RUN echo %q && %s\n\n", MarkerCompile, spec.CompileCommand)

	if len(spec.SecretNames) > 0 {
		b.WriteString("# build credentials stop here; nothing below may see them\n")
		b.WriteString(envLine(spec.SecretNames, false))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "FROM %s AS runtime\n\n", spec.RuntimeImage)

	if len(spec.RuntimePackages) > 0 {
		fmt.Fprintf(&b, "RUN apt-get update && apt-get install -y --no-install-recommends %s && rm -rf /var/lib/apt/lists/*\n\n",
			strings.Join(spec.RuntimePackages, " "))
	}

	b.WriteString("WORKDIR /app\n")
	fmt.Fprintf(&b, "COPY --from=builder /src/%s ./server\n", spec.ArtifactPath)
	fmt.Fprintf(&b, "COPY %s ./docker-entrypoint.sh\n", spec.EntrypointScript)
	b.WriteString("RUN chmod +x ./docker-entrypoint.sh\n\n")

	fmt.Fprintf(&b, "EXPOSE %d\n", spec.ExposedPort)
	b.WriteString(`ENTRYPOINT ["./docker-entrypoint.sh"]` + "\n")

	return []byte(b.String())
}

// envLine renders a single ENV instruction covering every secret.
// With mirror set, each variable takes its build-argument value;
// otherwise every variable is overwritten with the empty string.
func envLine(names []string, mirror bool) string {
	parts := make([]string, len(names))
	for i, name := range names {
		if mirror {
			parts[i] = fmt.Sprintf("%s=$%s", name, name)
		} else {
			parts[i] = fmt.Sprintf("%s=\"\"", name)
		}
	}
	return "ENV " + strings.Join(parts, " ")
}
