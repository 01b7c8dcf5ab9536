package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// writeConfig writes a config file into dir and returns its path.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testFlags mirrors the persistent and deploy flags the CLI registers.
func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("storage-root", "", "")
	fs.String("dir-name", "assets", "")
	fs.String("bundle", "", "")
	fs.Int("buffer-size", 4096, "")
	fs.String("policy", "abort", "")
	fs.Bool("recursive", false, "")
	fs.String("container-root", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{WorkDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, DefaultStorageRoot(), cfg.StorageRoot)
	assert.Equal(t, "assets", cfg.DirName)
	assert.Equal(t, "resourcepack", cfg.SourceFolder)
	assert.Equal(t, 4096, cfg.BufferSize)
	assert.Equal(t, model.PolicyAbort, cfg.Policy)
	assert.False(t, cfg.Recursive)
	assert.Empty(t, cfg.Bundle)
}

func TestLoad_JSONCFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
  // per-installation data root
  "storage_root": "/srv/engine",
  "policy": "Collect",   /* case is normalized */
  "recursive": true,
  "buffer_size": 8192,
  "push": {
    "container_root": "/data",
  },
}`)

	cfg, err := Load(LoadOptions{WorkDir: dir})
	require.NoError(t, err)

	assert.Equal(t, "/srv/engine", cfg.StorageRoot)
	assert.Equal(t, model.PolicyCollect, cfg.Policy)
	assert.True(t, cfg.Recursive)
	assert.Equal(t, 8192, cfg.BufferSize)
	assert.Equal(t, "/data", cfg.Push.ContainerRoot)
	assert.Equal(t, "assets", cfg.DirName, "keys absent from the file keep their default")
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.jsonc")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"dir_name": "packs"}`), 0o644))

	cfg, err := Load(LoadOptions{ConfigFile: path, WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "packs", cfg.DirName)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"storage_root": `)

	_, err := Load(LoadOptions{WorkDir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

// TestLoad_Precedence checks defaults < file < env < flags.
func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"storage_root": "/from/file", "policy": "collect", "buffer_size": 1024}`)

	t.Setenv("ASSETDEPLOY_STORAGE_ROOT", "/from/env")
	t.Setenv("ASSETDEPLOY_BUFFER_SIZE", "2048")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--storage-root", "/from/flag"}))

	cfg, err := Load(LoadOptions{WorkDir: dir, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "/from/flag", cfg.StorageRoot, "flag beats env")
	assert.Equal(t, 2048, cfg.BufferSize, "env beats file")
	assert.Equal(t, model.PolicyCollect, cfg.Policy, "unset flag does not override file")
}

func TestLoad_NestedEnv(t *testing.T) {
	t.Setenv("ASSETDEPLOY_PUSH_CONTAINER_ROOT", "/opt/engine")

	cfg, err := Load(LoadOptions{WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "/opt/engine", cfg.Push.ContainerRoot)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad policy", `{"policy": "retry"}`, "invalid failure policy"},
		{"zero buffer", `{"buffer_size": 0}`, "buffer size must be positive"},
		{"nested dir name", `{"dir_name": "a/b"}`, "invalid dir name"},
		{"dot dir name", `{"dir_name": ".."}`, "invalid dir name"},
		{"empty root", `{"storage_root": "  "}`, "storage root must not be empty"},
		{"empty folder", `{"source_folder": ""}`, "source folder must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := Load(LoadOptions{WorkDir: dir})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_TargetDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageRoot = filepath.Join("root", "data")
	assert.Equal(t, filepath.Join("root", "data", "assets"), cfg.TargetDir())
}

func TestDefaultStorageRoot_XDG(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG_DATA_HOME is only consulted on Linux and other Unixes")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	assert.Equal(t, filepath.Join(dir, AppName), DefaultStorageRoot())
}
