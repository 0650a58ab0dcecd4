package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{"jpg", "photo.jpg", true},
		{"jpeg uppercase", "PHOTO.JPEG", true},
		{"png", "crop.png", true},
		{"webp", "pic.webp", true},
		{"json", "metadata.json", false},
		{"no extension", "README", false},
		{"gif not accepted", "anim.gif", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImageFile(tt.filename))
		})
	}
}

func TestIsIgnoredArtifact(t *testing.T) {
	assert.True(t, IsIgnoredArtifact("desktop.ini"))
	assert.True(t, IsIgnoredArtifact("Desktop.INI"))
	assert.True(t, IsIgnoredArtifact("Thumbs.db"))
	assert.True(t, IsIgnoredArtifact(".gitkeep"))
	assert.True(t, IsIgnoredArtifact("/some/dir/desktop.ini"))
	assert.False(t, IsIgnoredArtifact("cat.jpg"))
}

func TestHasAnySuffix(t *testing.T) {
	exts := []string{".json", ".jpg", ".png"}
	assert.True(t, HasAnySuffix("metadata.json", exts))
	assert.True(t, HasAnySuffix("CAT.JPG", exts))
	assert.False(t, HasAnySuffix("notes.txt", exts))
	assert.False(t, HasAnySuffix("image.webp", exts))
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.png", "desktop.ini", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	names, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.jpg"}, names)
}

func TestListImagesMissingDir(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c.jpg", SanitizeFilename("a/b:c.jpg"))
	assert.Equal(t, "cat.jpg", SanitizeFilename(" cat.jpg "))
}

func TestEnsureDirAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, FileExists(dir))

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.True(t, FileExists(file))
	assert.False(t, DirExists(file))

	// Second call on an existing directory is a no-op.
	require.NoError(t, EnsureDir(dir))
}
