package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/scenescan/internal/config"
)

func testWorkspace(t *testing.T) (*Workspace, config.WorkspaceConfig) {
	t.Helper()
	cfg := config.WorkspaceConfig{
		DataDir:  t.TempDir(),
		KeepFile: ".gitkeep",
	}
	ws := New(cfg)
	require.NoError(t, ws.EnsureLayout())
	return ws, cfg
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestStage(t *testing.T) {
	ws, cfg := testWorkspace(t)

	name, err := ws.Stage(strings.NewReader("image-bytes"), "/uploads/my photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "my photo.jpg", name)

	data, err := os.ReadFile(filepath.Join(cfg.TempDir(), name))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

func TestStageSanitizesName(t *testing.T) {
	ws, cfg := testWorkspace(t)

	name, err := ws.Stage(strings.NewReader("x"), "a:b?c.jpg")
	require.NoError(t, err)
	assert.Equal(t, "a_b_c.jpg", name)
	assert.FileExists(t, filepath.Join(cfg.TempDir(), name))
}

func TestResetClearsPriorArtifacts(t *testing.T) {
	ws, cfg := testWorkspace(t)

	// Artifacts from a previous run.
	writeFile(t, filepath.Join(cfg.InputImagesDir(), "old.jpg"))
	writeFile(t, filepath.Join(cfg.SegmentedObjectsDir(), "old_object_0.png"))
	writeFile(t, filepath.Join(cfg.OutputDir(), "metadata.json"))
	writeFile(t, filepath.Join(cfg.OutputDir(), "annotated_old.jpg"))
	// Non-artifact files survive the filtered clear.
	writeFile(t, filepath.Join(cfg.OutputDir(), "notes.txt"))
	writeFile(t, filepath.Join(cfg.SegmentedObjectsDir(), ".gitkeep"))

	name, err := ws.Stage(strings.NewReader("new"), "cat.jpg")
	require.NoError(t, err)
	require.NoError(t, ws.Reset(name))

	assert.NoFileExists(t, filepath.Join(cfg.InputImagesDir(), "old.jpg"))
	assert.NoFileExists(t, filepath.Join(cfg.SegmentedObjectsDir(), "old_object_0.png"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir(), "metadata.json"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir(), "annotated_old.jpg"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "notes.txt"))
	assert.FileExists(t, filepath.Join(cfg.SegmentedObjectsDir(), ".gitkeep"))
	assert.FileExists(t, filepath.Join(cfg.InputImagesDir(), "cat.jpg"))
}

func TestResetIdempotent(t *testing.T) {
	ws, cfg := testWorkspace(t)

	name, err := ws.Stage(strings.NewReader("new"), "cat.jpg")
	require.NoError(t, err)
	require.NoError(t, ws.Reset(name))
	require.NoError(t, ws.Reset(name))

	entries, err := os.ReadDir(cfg.InputImagesDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cat.jpg", entries[0].Name())
}

func TestResetAcceptsImageAlreadyInInput(t *testing.T) {
	ws, cfg := testWorkspace(t)

	// No staged copy, but the image is already in place.
	writeFile(t, filepath.Join(cfg.InputImagesDir(), "cat.jpg"))
	require.NoError(t, ws.Reset("cat.jpg"))
	assert.FileExists(t, filepath.Join(cfg.InputImagesDir(), "cat.jpg"))
}

func TestResetMissingStagedImage(t *testing.T) {
	ws, _ := testWorkspace(t)

	err := ws.Reset("ghost.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staged image does not exist")
}

func TestResetCreatesLayout(t *testing.T) {
	cfg := config.WorkspaceConfig{
		DataDir:  filepath.Join(t.TempDir(), "fresh"),
		KeepFile: ".gitkeep",
	}
	ws := New(cfg)

	_, err := ws.Stage(strings.NewReader("x"), "cat.jpg")
	require.NoError(t, err)
	require.NoError(t, ws.Reset("cat.jpg"))

	assert.DirExists(t, cfg.InputImagesDir())
	assert.DirExists(t, cfg.SegmentedObjectsDir())
	assert.DirExists(t, cfg.OutputDir())
}
