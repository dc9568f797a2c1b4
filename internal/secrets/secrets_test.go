package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("reads values from environment", func(t *testing.T) {
		t.Setenv("GOTHAM_TEST_SLOT_TOKEN", "slot-token-1")
		t.Setenv("GOTHAM_DB_PASS_W", "write-pass")
		t.Setenv("GOTHAM_DB_PASS_R", "read-pass")

		store := FromEnv([]string{"GOTHAM_TEST_SLOT_TOKEN", "GOTHAM_DB_PASS_W", "GOTHAM_DB_PASS_R"})

		assert.Equal(t, []string{"GOTHAM_TEST_SLOT_TOKEN", "GOTHAM_DB_PASS_W", "GOTHAM_DB_PASS_R"}, store.Names())
		assert.Empty(t, store.Missing())
	})

	t.Run("missing variable degrades to empty value", func(t *testing.T) {
		t.Setenv("GOTHAM_DB_PASS_W", "write-pass")

		store := FromEnv([]string{"GOTHAM_DB_PASS_W", "GOTHAM_NOT_SET"})

		assert.Equal(t, []string{"GOTHAM_NOT_SET"}, store.Missing())

		args := store.BuildArgs()
		require.Contains(t, args, "GOTHAM_NOT_SET")
		assert.Equal(t, "", *args["GOTHAM_NOT_SET"])
	})
}

func TestBuildArgs(t *testing.T) {
	store := New(
		Secret{Name: "A", Value: "one"},
		Secret{Name: "B", Value: ""},
	)

	args := store.BuildArgs()
	require.Len(t, args, 2)
	assert.Equal(t, "one", *args["A"])
	assert.Equal(t, "", *args["B"])
}

func TestPurge(t *testing.T) {
	store := New(
		Secret{Name: "A", Value: "one"},
		Secret{Name: "B", Value: "two"},
	)

	store.Purge()

	assert.Equal(t, []string{"A", "B"}, store.Missing())
	for _, v := range store.BuildArgs() {
		assert.Equal(t, "", *v)
	}
}

func TestRedact(t *testing.T) {
	store := New(
		Secret{Name: "A", Value: "s3cr3t"},
		Secret{Name: "B", Value: ""},
	)

	t.Run("masks present values", func(t *testing.T) {
		out := store.Redact("connecting with s3cr3t as password")
		assert.Equal(t, "connecting with ******** as password", out)
	})

	t.Run("empty values never match", func(t *testing.T) {
		out := store.Redact("plain text")
		assert.Equal(t, "plain text", out)
	})

	t.Run("purged store stops masking", func(t *testing.T) {
		store.Purge()
		out := store.Redact("connecting with s3cr3t as password")
		assert.Equal(t, "connecting with s3cr3t as password", out)
	})
}
