// Package workspace manages the on-disk working directories shared by the
// pipeline stages: upload staging and the destructive reset that clears
// prior run artifacts before a new image is processed.
package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/internal/utils"
)

// clearedExts are the artifact types removed from the segmented-objects
// and output directories on reset.
var clearedExts = []string{".json", ".jpeg", ".jpg", ".png", ".webp"}

// Workspace wraps the configured directory layout.
type Workspace struct {
	cfg config.WorkspaceConfig
}

// New creates a Workspace for the given layout.
func New(cfg config.WorkspaceConfig) *Workspace {
	return &Workspace{cfg: cfg}
}

// EnsureLayout creates all working directories if absent.
func (w *Workspace) EnsureLayout() error {
	for _, dir := range []string{
		w.cfg.InputImagesDir(),
		w.cfg.SegmentedObjectsDir(),
		w.cfg.OutputDir(),
		w.cfg.TempDir(),
	} {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Stage writes an uploaded image into the temp staging directory and
// returns the sanitized filename Reset expects.
func (w *Workspace) Stage(r io.Reader, name string) (string, error) {
	if err := utils.EnsureDir(w.cfg.TempDir()); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	name = utils.SanitizeFilename(filepath.Base(name))
	if name == "" {
		return "", fmt.Errorf("empty upload name")
	}

	dst := filepath.Join(w.cfg.TempDir(), name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	return name, nil
}

// Reset clears prior run artifacts and moves the staged image into the
// input directory. Deletion is best-effort: individual failures are logged
// and do not abort the reset. A single locked file must not block the
// pipeline.
func (w *Workspace) Reset(newImageName string) error {
	if err := w.EnsureLayout(); err != nil {
		return err
	}

	clearDirectory(w.cfg.SegmentedObjectsDir(), clearedExts, w.cfg.KeepFile)
	clearDirectory(w.cfg.OutputDir(), clearedExts, w.cfg.KeepFile)

	// The input directory is cleared unconditionally, keeping only the
	// incoming image and the keep-file.
	clearInputDir(w.cfg.InputImagesDir(), newImageName, w.cfg.KeepFile)

	staged := filepath.Join(w.cfg.TempDir(), newImageName)
	if !utils.FileExists(staged) {
		// The image may have been placed in the input directory directly.
		if utils.FileExists(filepath.Join(w.cfg.InputImagesDir(), newImageName)) {
			return nil
		}
		return fmt.Errorf("staged image does not exist: %s", staged)
	}

	dst := filepath.Join(w.cfg.InputImagesDir(), newImageName)
	if err := copyFile(staged, dst); err != nil {
		return fmt.Errorf("failed to move staged image into input directory: %w", err)
	}

	slog.Debug("workspace reset complete", "image", newImageName)
	return nil
}

// clearDirectory removes entries from dir. When fileTypes is non-empty only
// matching files are removed, otherwise removal is unconditional. Files
// named keep are always preserved.
func clearDirectory(dir string, fileTypes []string, keep string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("directory not readable, skipping", "dir", dir, "error", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if keep != "" && name == keep {
			continue
		}
		if len(fileTypes) > 0 && !entry.IsDir() && !utils.HasAnySuffix(name, fileTypes) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("failed to delete, continuing", "path", path, "error", err)
		}
	}
}

// clearInputDir removes everything from the input directory except the new
// image and the keep-file.
func clearInputDir(dir, newImageName, keep string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("input directory not readable, skipping", "dir", dir, "error", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == newImageName || (keep != "" && name == keep) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("failed to delete, continuing", "path", path, "error", err)
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
