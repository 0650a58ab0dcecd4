package segment

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/pkg/types"
)

type stubClient struct {
	response string
	err      error
}

func (s *stubClient) QueryImage(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	return "", fmt.Errorf("unexpected text generation")
}

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, imaging.Save(imaging.New(w, h, image.White.C), path))
}

func testConfig() config.SegmenterConfig {
	return config.SegmenterConfig{
		Backend:      "model",
		MaxObjects:   10,
		MinScore:     0.5,
		MaxImageSize: 800,
		SendFormat:   "jpg",
		SendSize:     1536,
		SendQuality:  85,
	}
}

func TestSegmentWritesCrops(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := filepath.Join(t.TempDir(), "segmented")
	writeTestImage(t, filepath.Join(srcDir, "cat.jpg"), 200, 160)

	stub := &stubClient{response: `{"objects":[
		{"label":"cat","score":0.9,"box":{"x":0.1,"y":0.1,"w":0.4,"h":0.5}},
		{"label":"ball","score":0.7,"box":{"x":0.6,"y":0.6,"w":0.3,"h":0.3}}
	]}`}
	seg := NewModel(stub, "test-model", testConfig())

	objects, err := seg.Segment(context.Background(), srcDir, dstDir)
	require.NoError(t, err)

	require.Len(t, objects, 2)
	assert.Equal(t, "cat_object_0.png", objects[0].ImageID)
	assert.Equal(t, "cat.jpg", objects[0].SourceImage)
	assert.Equal(t, "cat", objects[0].Label)
	assert.Equal(t, "cat_object_1.png", objects[1].ImageID)

	assert.FileExists(t, filepath.Join(dstDir, "cat_object_0.png"))
	assert.FileExists(t, filepath.Join(dstDir, "cat_object_1.png"))
}

func TestSegmentFiltersLowScores(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	writeTestImage(t, filepath.Join(srcDir, "cat.jpg"), 200, 160)

	stub := &stubClient{response: `{"objects":[
		{"label":"cat","score":0.9,"box":{"x":0.1,"y":0.1,"w":0.4,"h":0.5}},
		{"label":"shadow","score":0.2,"box":{"x":0.5,"y":0.5,"w":0.3,"h":0.3}},
		{"label":"degenerate","score":0.9,"box":{"x":0.5,"y":0.5,"w":0,"h":0.3}}
	]}`}
	seg := NewModel(stub, "test-model", testConfig())

	objects, err := seg.Segment(context.Background(), srcDir, dstDir)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "cat", objects[0].Label)
}

func TestSegmentCapsObjectCount(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	writeTestImage(t, filepath.Join(srcDir, "cat.jpg"), 200, 160)

	cfg := testConfig()
	cfg.MaxObjects = 1
	stub := &stubClient{response: `{"objects":[
		{"label":"a","score":0.9,"box":{"x":0.1,"y":0.1,"w":0.4,"h":0.4}},
		{"label":"b","score":0.8,"box":{"x":0.5,"y":0.5,"w":0.4,"h":0.4}}
	]}`}
	seg := NewModel(stub, "test-model", cfg)

	objects, err := seg.Segment(context.Background(), srcDir, dstDir)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestSegmentSkipsBadImages(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	writeTestImage(t, filepath.Join(srcDir, "good.jpg"), 200, 160)
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "bad.jpg"), []byte("not an image"), 0o644))

	stub := &stubClient{response: `{"objects":[
		{"label":"cat","score":0.9,"box":{"x":0.1,"y":0.1,"w":0.4,"h":0.5}}
	]}`}
	seg := NewModel(stub, "test-model", testConfig())

	objects, err := seg.Segment(context.Background(), srcDir, dstDir)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "good_object_0.png", objects[0].ImageID)
}

func TestSegmentMissingSourceDir(t *testing.T) {
	seg := NewModel(&stubClient{}, "test-model", testConfig())
	_, err := seg.Segment(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, err)
}

func TestSegmentDetectorFailure(t *testing.T) {
	srcDir := t.TempDir()
	writeTestImage(t, filepath.Join(srcDir, "cat.jpg"), 200, 160)

	// Backend failure for one image is logged and skipped, not raised.
	stub := &stubClient{err: fmt.Errorf("backend unavailable")}
	seg := NewModel(stub, "test-model", testConfig())

	objects, err := seg.Segment(context.Background(), srcDir, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestClampBox(t *testing.T) {
	b := clampBox(types.Box{X: -0.2, Y: 0.5, W: 0.5, H: 0.8})
	assert.Equal(t, 0.0, b.X)
	assert.InDelta(t, 0.3, b.W, 1e-9)
	assert.Equal(t, 0.5, b.Y)
	assert.InDelta(t, 0.8, b.H, 1e-9)
}
