// Package segment implements the detection/segmentation stage: it turns
// every master image in the input directory into per-object crop files
// named "{stem}_object_{i}.png" in the segmented-objects directory.
package segment

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/internal/utils"
	"github.com/menta2k/scenescan/pkg/imageio"
	"github.com/menta2k/scenescan/pkg/types"
)

// Segmenter produces per-object crops from every master image in srcDir.
// Per-image failures are logged and skipped; only a directory-level
// failure aborts the stage.
type Segmenter interface {
	Segment(ctx context.Context, srcDir, dstDir string) ([]types.SegmentedObject, error)
}

// detector is the backend-specific part of segmentation: find object
// boxes in a single loaded image.
type detector interface {
	detect(ctx context.Context, img image.Image) ([]candidate, error)
}

type candidate struct {
	Label string
	Score float64
	Box   types.Box
}

type segmenter struct {
	detector detector
	cfg      config.SegmenterConfig
}

// Segment walks srcDir, detects objects in each qualifying image and
// writes one PNG crop per detected object into dstDir.
func (s *segmenter) Segment(ctx context.Context, srcDir, dstDir string) ([]types.SegmentedObject, error) {
	names, err := utils.ListImages(srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", srcDir, err)
	}
	if err := utils.EnsureDir(dstDir); err != nil {
		return nil, fmt.Errorf("failed to create segmented-objects directory: %w", err)
	}

	var objects []types.SegmentedObject
	for _, name := range names {
		crops, err := s.segmentOne(ctx, srcDir, dstDir, name)
		if err != nil {
			slog.Warn("segmentation failed for image, skipping", "image", name, "error", err)
			continue
		}
		objects = append(objects, crops...)
	}
	return objects, nil
}

func (s *segmenter) segmentOne(ctx context.Context, srcDir, dstDir, name string) ([]types.SegmentedObject, error) {
	img, err := imageio.Load(filepath.Join(srcDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	img = imageio.ResizeToMax(img, s.cfg.MaxImageSize)

	candidates, err := s.detector.detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	var objects []types.SegmentedObject
	for i, c := range candidates {
		if s.cfg.MaxObjects > 0 && len(objects) >= s.cfg.MaxObjects {
			break
		}
		crop, err := imageio.CropBox(img, c.Box)
		if err != nil {
			slog.Warn("failed to crop object, skipping", "image", name, "index", i, "error", err)
			continue
		}

		cropName := fmt.Sprintf("%s_object_%d.png", stem, i)
		if err := imageio.Save(crop, filepath.Join(dstDir, cropName), 100); err != nil {
			slog.Warn("failed to save object crop, skipping", "crop", cropName, "error", err)
			continue
		}

		slog.Debug("saved segmented object", "crop", cropName, "label", c.Label, "score", c.Score)
		objects = append(objects, types.SegmentedObject{
			ImageID:     cropName,
			SourceImage: name,
			Label:       c.Label,
			Box:         c.Box,
			Score:       c.Score,
		})
	}
	return objects, nil
}
