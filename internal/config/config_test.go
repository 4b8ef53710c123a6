package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project:
  root: /work/app
  sources: [src/main/java, /opt/lib]
  ignore: [generated]
storage:
  path: /tmp/app.db
resolve:
  ignore: [java.io.Serializable]
`), 0o644))

	t.Run("File values", func(t *testing.T) {
		t.Setenv("GENRES_DB", "")
		t.Setenv("GENRES_SOURCES", "")
		t.Setenv("GENRES_IGNORE", "")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/work/app", cfg.Project.Root)
		assert.Equal(t, []string{"generated"}, cfg.Project.Ignore)
		assert.Equal(t, "/tmp/app.db", cfg.Storage.Path)
		assert.Equal(t, []string{"java.io.Serializable"}, cfg.Resolve.Ignore)
		assert.Equal(t, []string{filepath.Join("/work/app", "src/main/java"), "/opt/lib"}, cfg.SourceDirs())
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("GENRES_DB", "/var/genres.db")
		t.Setenv("GENRES_SOURCES", "a, b ,")
		t.Setenv("GENRES_IGNORE", "Serializable,Cloneable")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/genres.db", cfg.Storage.Path)
		assert.Equal(t, []string{"a", "b"}, cfg.Project.Sources)
		assert.Equal(t, []string{"Serializable", "Cloneable"}, cfg.Resolve.Ignore)
	})
}

func TestLoadConfig_Missing(t *testing.T) {
	t.Setenv("GENRES_DB", "")
	t.Setenv("GENRES_SOURCES", "")
	t.Setenv("GENRES_IGNORE", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []string{"."}, cfg.SourceDirs())
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: [unclosed"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
