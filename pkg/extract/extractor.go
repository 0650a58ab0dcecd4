// Package extract implements the text-extraction stage: every record in
// the metadata sequence gets its crop OCRed, with a sentinel recorded
// when no text is visible.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/pkg/client"
	"github.com/menta2k/scenescan/pkg/imageio"
	"github.com/menta2k/scenescan/pkg/types"
)

const (
	sendFormat  = "jpg"
	sendQuality = 85
)

// Prompt asks the vision model to act as an OCR engine.
const Prompt = `Read all text visible in this image.

Respond with the extracted text only, in reading order, words separated by
single spaces. If there is no readable text respond with exactly: NONE
No explanations, no markdown.`

// noTextMarker is the model's agreed-upon reply for text-free images.
const noTextMarker = "NONE"

// Extractor pulls visible text out of segmented-object crops.
type Extractor struct {
	client client.ModelClient
	model  string
	cfg    config.ExtractConfig
}

// New creates an Extractor using the given chat backend and model name.
func New(c client.ModelClient, model string, cfg config.ExtractConfig) *Extractor {
	return &Extractor{client: c, model: model, cfg: cfg}
}

// Extract returns the text visible in the image at imagePath, or an empty
// string when the image is unreadable, too small or text-free. Failures
// are logged, never raised; a single bad crop must not abort the batch.
func (e *Extractor) Extract(ctx context.Context, imagePath string) string {
	img, err := imageio.Load(imagePath)
	if err != nil {
		slog.Warn("empty or invalid image, skipping text extraction", "path", imagePath, "error", err)
		return ""
	}

	b := img.Bounds()
	if b.Dx() < e.cfg.MinImageSize || b.Dy() < e.cfg.MinImageSize {
		slog.Warn("image too small for text extraction", "path", imagePath,
			"width", b.Dx(), "height", b.Dy())
		return ""
	}

	imgB64, err := imageio.PrepareForModel(img, sendFormat, 0, sendQuality)
	if err != nil {
		slog.Warn("failed to encode image for text extraction", "path", imagePath, "error", err)
		return ""
	}

	raw, err := e.client.QueryImage(ctx, e.model, Prompt, imgB64)
	if err != nil {
		slog.Warn("text extraction query failed", "path", imagePath, "error", err)
		return ""
	}

	text := strings.TrimSpace(raw)
	if text == "" || strings.EqualFold(text, noTextMarker) {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// EnrichRecords sets the texts field on every record, deriving the
// expected crop filename from the record's identifier. Records whose crop
// yields no text get the no-text sentinel. The input slice is returned
// with its records updated.
func (e *Extractor) EnrichRecords(ctx context.Context, records []types.ObjectRecord, segmentedDir string) []types.ObjectRecord {
	for idx := range records {
		objectPath := filepath.Join(segmentedDir, fmt.Sprintf("%s.png", types.ObjectStem(records[idx].ImageID)))

		if text := e.Extract(ctx, objectPath); text != "" {
			records[idx].Texts = text
		} else {
			records[idx].Texts = types.NoTextSentinel
		}
	}
	return records
}
