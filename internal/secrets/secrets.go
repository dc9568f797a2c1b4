// Package secrets models build-time secrets: named credential values
// that exist only for the duration of the build stage.
//
// A Store is created per invocation and handed to the build stage
// alone. It is never stored globally and never reaches the runtime
// stage; after the build consumes it, Purge zeroes every value.
package secrets

import (
	"os"
	"strings"
)

// Secret is a single named build-time credential.
type Secret struct {
	// Name is the build-argument name, e.g. "GOTHAM_DB_PASS_W".
	Name string

	// Value is the credential value. Empty when the environment did not
	// provide one.
	Value string
}

// Present reports whether the secret carries a non-empty value.
func (s Secret) Present() bool {
	return s.Value != ""
}

// Store is an ordered collection of build secrets scoped to one
// pipeline invocation.
type Store struct {
	secrets []Secret
}

// FromEnv builds a Store by looking up each name in the environment.
//
// A missing variable yields an empty value rather than an error: the
// corresponding build step runs with degraded credentials. Callers
// should surface Missing() as a warning so silently broken test
// configuration is visible in the build log.
func FromEnv(names []string) *Store {
	s := &Store{secrets: make([]Secret, 0, len(names))}
	for _, name := range names {
		s.secrets = append(s.secrets, Secret{Name: name, Value: os.Getenv(name)})
	}
	return s
}

// New builds a Store from explicit secrets, preserving order.
func New(secrets ...Secret) *Store {
	return &Store{secrets: append([]Secret(nil), secrets...)}
}

// Secrets returns a copy of the stored secrets in declaration order.
func (s *Store) Secrets() []Secret {
	return append([]Secret(nil), s.secrets...)
}

// Names returns the secret names in declaration order.
func (s *Store) Names() []string {
	names := make([]string, len(s.secrets))
	for i, sec := range s.secrets {
		names[i] = sec.Name
	}
	return names
}

// Missing returns the names of secrets that resolved to empty values.
func (s *Store) Missing() []string {
	var missing []string
	for _, sec := range s.secrets {
		if !sec.Present() {
			missing = append(missing, sec.Name)
		}
	}
	return missing
}

// Len returns the number of secrets in the store.
func (s *Store) Len() int {
	return len(s.secrets)
}

// BuildArgs renders the store as docker build arguments.
// Values are pointers per the Engine API contract; empty values are
// passed through as empty strings, not omitted.
func (s *Store) BuildArgs() map[string]*string {
	args := make(map[string]*string, len(s.secrets))
	for _, sec := range s.secrets {
		v := sec.Value
		args[sec.Name] = &v
	}
	return args
}

// Purge overwrites every secret value with the empty string.
// The store stays usable for name lookups but carries no credential
// material afterwards.
func (s *Store) Purge() {
	for i := range s.secrets {
		s.secrets[i].Value = ""
	}
}

// Redact replaces every present secret value in text with a mask.
// Used on build output before it reaches any log.
func (s *Store) Redact(text string) string {
	for _, sec := range s.secrets {
		if sec.Present() {
			text = strings.ReplaceAll(text, sec.Value, "********")
		}
	}
	return text
}
