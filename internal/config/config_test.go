package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultHasEphemeralPortAndUserNamespace(t *testing.T) {
	cfg := Default()
	require.Equal(t, 0, cfg.Port)
	require.Equal(t, "user", cfg.InitialNamespace)
	require.False(t, cfg.EnableWatching)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadParsesYamlOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	contents := `
watch-paths: ["src", "lib"]
enable-watching: true
auto-reload: true
initial-namespace: myapp.core
port: 7888
verbose: true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"src", "lib"}, cfg.WatchPaths)
	require.True(t, cfg.EnableWatching)
	require.True(t, cfg.AutoReload)
	require.Equal(t, "myapp.core", cfg.InitialNamespace)
	require.Equal(t, 7888, cfg.Port)
	require.True(t, cfg.Verbose)
}

func TestLoadMalformedFileIsHardError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
