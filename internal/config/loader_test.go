package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenescan.yaml")
	yaml := `
log_level: debug
workspace:
  data_dir: /srv/scenescan
backend:
  name: llamacpp
  url: http://model-server:8080
segmenter:
  backend: saliency
  max_objects: 5
identify:
  threshold: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := newLoaderWith(viper.New()).LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/scenescan", cfg.Workspace.DataDir)
	assert.Equal(t, "llamacpp", cfg.Backend.Name)
	assert.Equal(t, "http://model-server:8080", cfg.Backend.URL)
	assert.Equal(t, "saliency", cfg.Segmenter.Backend)
	assert.Equal(t, 5, cfg.Segmenter.MaxObjects)
	assert.Equal(t, 0.5, cfg.Identify.Threshold)

	// Unset keys keep their defaults.
	assert.Equal(t, "llava:13b", cfg.Backend.VisionModel)
	assert.Equal(t, 0.25, Default().Identify.Threshold)
	assert.NotEmpty(t, cfg.Identify.Labels)
}

func TestLoadWithFileMissing(t *testing.T) {
	_, err := newLoaderWith(viper.New()).LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenescan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  name: vllm\n"), 0o644))

	_, err := newLoaderWith(viper.New()).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	// No config file on the search path of a private instance rooted in a
	// temp directory.
	v := viper.New()
	v.AddConfigPath(t.TempDir())
	loader := newLoaderWith(v)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Backend.Name)
	assert.Equal(t, 0.25, cfg.Identify.Threshold)
}
