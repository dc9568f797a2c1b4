package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("matches the platform contract byte for byte", func(t *testing.T) {
		d := New("123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild:9f86d08", 8000)

		data, err := d.Render()
		require.NoError(t, err)
		assert.Equal(t,
			`{"AWSEBDockerrunVersion":"1","Ports":[{"ContainerPort":8000}],"Image":{"Name":"123456789012.dkr.ecr.us-west-2.amazonaws.com/gothambuild:9f86d08","Update":"true"}}`,
			string(data))
	})

	t.Run("is deterministic", func(t *testing.T) {
		d := New("example.com/repo:abc1234", 8000)

		first, err := d.Render()
		require.NoError(t, err)
		second, err := d.Render()
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestWrite(t *testing.T) {
	t.Run("writes the descriptor file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "Dockerrun.aws.json")
		d := New("example.com/repo:abc1234", 8000)

		require.NoError(t, d.Write(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"AWSEBDockerrunVersion":"1"`)
		assert.Contains(t, string(data), `example.com/repo:abc1234`)
	})

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "nested", "Dockerrun.aws.json")
		d := New("example.com/repo:abc1234", 8000)

		require.NoError(t, d.Write(path))
		assert.FileExists(t, path)
	})
}
