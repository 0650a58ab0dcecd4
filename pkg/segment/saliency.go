package segment

import (
	"context"
	"image"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/pkg/vision"
)

// saliencyDetector runs the local saliency detector. It needs no model
// server, which makes it the offline fallback backend; candidate labels
// are left empty and come out of identification instead.
type saliencyDetector struct {
	detector *vision.Detector
	cfg      config.SegmenterConfig
}

// NewSaliency creates a Segmenter backed by the local saliency detector.
func NewSaliency(cfg config.SegmenterConfig) Segmenter {
	return &segmenter{
		detector: &saliencyDetector{detector: vision.New(), cfg: cfg},
		cfg:      cfg,
	}
}

func (d *saliencyDetector) detect(_ context.Context, img image.Image) ([]candidate, error) {
	found := d.detector.DetectObjects(img, d.cfg.MaxObjects, 0)
	var out []candidate
	for _, f := range found {
		out = append(out, candidate{Box: f.Box, Score: f.Score})
	}
	return out, nil
}
