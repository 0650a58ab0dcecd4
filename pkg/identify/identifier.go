// Package identify implements the zero-shot identification stage: each
// segmented object is matched against a candidate label set and only
// objects clearing the acceptance threshold enter the metadata document.
package identify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/internal/utils"
	"github.com/menta2k/scenescan/pkg/client"
	"github.com/menta2k/scenescan/pkg/imageio"
	"github.com/menta2k/scenescan/pkg/types"
)

// Payload encoding for crops sent to the model. Crops are small, so no
// resizing is applied.
const (
	sendFormat  = "jpg"
	sendQuality = 85
)

const promptTemplate = `You are a zero-shot image classifier.

Candidate labels:
%s

Pick the single best-matching label for the image and estimate the match
probability across all candidates.

Return JSON only:
{"label": "string", "confidence": 0.0}

HARD RULES
- label must be copied verbatim from the candidate list.
- confidence is a probability in [0,1] over the candidate list.
- JSON only. No markdown, no code fences, no comments.`

// Identifier assigns semantic labels to segmented-object crops.
type Identifier struct {
	client client.ModelClient
	model  string
	cfg    config.IdentifyConfig
}

// New creates an Identifier using the given chat backend and model name.
func New(c client.ModelClient, model string, cfg config.IdentifyConfig) *Identifier {
	return &Identifier{client: c, model: model, cfg: cfg}
}

type classifyResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Identify matches one image against the candidate labels. It returns nil
// when no label clears the threshold or when the image cannot be loaded
// (logged, not raised).
func (i *Identifier) Identify(ctx context.Context, imagePath string, labels []string) (*types.Detection, error) {
	img, err := imageio.Load(imagePath)
	if err != nil {
		slog.Warn("error loading image for identification", "path", imagePath, "error", err)
		return nil, nil
	}

	imgB64, err := imageio.PrepareForModel(img, sendFormat, 0, sendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for model: %w", err)
	}

	prompt := fmt.Sprintf(promptTemplate, strings.Join(labels, ", "))
	raw, err := i.client.QueryImage(ctx, i.model, prompt, imgB64)
	if err != nil {
		return nil, fmt.Errorf("identification query failed: %w", err)
	}

	var resp classifyResponse
	if err := json.Unmarshal([]byte(client.SanitizeModelJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse identification response: %w", err)
	}

	// Only accept detections above the threshold; below-threshold objects
	// are dropped from the document entirely.
	if resp.Confidence <= i.cfg.Threshold {
		return nil, nil
	}
	return &types.Detection{
		Description: resp.Label,
		Probability: resp.Confidence,
	}, nil
}

// BuildRecords scans the segmented-objects directory and builds a fresh
// ordered record sequence containing only objects whose identification
// cleared the threshold. sources maps crop filenames to their master
// image; crops not present fall back to the stem encoded in their name.
func (i *Identifier) BuildRecords(ctx context.Context, segmentedDir string, sources map[string]string) ([]types.ObjectRecord, error) {
	names, err := utils.ListImages(segmentedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read segmented-objects directory %s: %w", segmentedDir, err)
	}

	var records []types.ObjectRecord
	for _, name := range names {
		detection, err := i.Identify(ctx, filepath.Join(segmentedDir, name), i.cfg.Labels)
		if err != nil {
			slog.Warn("identification failed for object, skipping", "object", name, "error", err)
			continue
		}
		if detection == nil {
			slog.Debug("no label cleared the threshold, dropping object", "object", name)
			continue
		}

		records = append(records, types.ObjectRecord{
			ImageID:     name,
			SourceImage: sourceFor(name, sources),
			Detection:   detection,
		})
	}
	return records, nil
}

func sourceFor(imageID string, sources map[string]string) string {
	if src, ok := sources[imageID]; ok {
		return src
	}
	if stem, ok := types.ParentImageStem(imageID); ok {
		return stem
	}
	return ""
}
