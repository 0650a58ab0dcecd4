package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/pkg/client"
	"github.com/menta2k/scenescan/pkg/imageio"
	"github.com/menta2k/scenescan/pkg/types"
)

// DetectPrompt asks a vision model for object bounding boxes.
const DetectPrompt = `You are an object detector.

Return JSON only:
{
  "objects": [
    {"label": "string", "score": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- Each box tightly encloses one distinct physical object.
- score is your confidence in [0,1].
- List the most prominent objects first, at most 10.
- If no objects are found, return {"objects": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

type modelDetector struct {
	client client.ModelClient
	model  string
	cfg    config.SegmenterConfig
}

type detectResponse struct {
	Objects []struct {
		Label string    `json:"label"`
		Score float64   `json:"score"`
		Box   types.Box `json:"box"`
	} `json:"objects"`
}

// NewModel creates a Segmenter backed by a vision chat model.
func NewModel(c client.ModelClient, model string, cfg config.SegmenterConfig) Segmenter {
	return &segmenter{
		detector: &modelDetector{client: c, model: model, cfg: cfg},
		cfg:      cfg,
	}
}

func (d *modelDetector) detect(ctx context.Context, img image.Image) ([]candidate, error) {
	imgB64, err := imageio.PrepareForModel(img, d.cfg.SendFormat, d.cfg.SendSize, d.cfg.SendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for model: %w", err)
	}

	raw, err := d.client.QueryImage(ctx, d.model, DetectPrompt, imgB64)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal([]byte(client.SanitizeModelJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse detection response: %w", err)
	}

	var out []candidate
	for _, obj := range resp.Objects {
		if obj.Score < d.cfg.MinScore {
			continue
		}
		if obj.Box.W <= 0 || obj.Box.H <= 0 {
			continue
		}
		out = append(out, candidate{
			Label: obj.Label,
			Score: obj.Score,
			Box:   clampBox(obj.Box),
		})
	}
	return out, nil
}

func clampBox(b types.Box) types.Box {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	x := clamp(b.X)
	y := clamp(b.Y)
	return types.Box{X: x, Y: y, W: clamp(b.W + b.X - x), H: clamp(b.H + b.Y - y)}
}
