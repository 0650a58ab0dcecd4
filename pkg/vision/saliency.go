// Package vision provides a local saliency-based object detector used as
// a fallback segmentation backend when no model server is available. It
// combines edge strength and contrast into a saliency map and extracts
// the highest-scoring windows as candidate objects.
package vision

import (
	"image"
	"math"

	"github.com/menta2k/scenescan/pkg/types"
)

// Detector finds salient regions in images.
type Detector struct {
	config Config
}

// Config holds configuration for saliency detection.
type Config struct {
	EdgeThreshold   float64
	ContrastWeight  float64
	ColorWeight     float64
	MinRegionRatio  float64
	MaxOverlapRatio float64
}

// New creates a Detector with default configuration.
func New() *Detector {
	return &Detector{
		config: Config{
			EdgeThreshold:   0.01,
			ContrastWeight:  0.3,
			ColorWeight:     0.2,
			MinRegionRatio:  0.05,
			MaxOverlapRatio: 0.4,
		},
	}
}

// NewWithConfig creates a Detector with custom configuration.
func NewWithConfig(config Config) *Detector {
	return &Detector{config: config}
}

// Candidate is a detected region with its saliency score.
type Candidate struct {
	Box   types.Box
	Score float64
}

// DetectObjects returns up to maxObjects candidate regions scoring above
// minScore, highest saliency first. Overlapping candidates are suppressed.
func (d *Detector) DetectObjects(img image.Image, maxObjects int, minScore float64) []Candidate {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return nil
	}

	saliencyMap := d.calculateSaliencyMap(img)
	regions := d.findImportantRegions(saliencyMap, width, height)
	regions = d.suppressOverlaps(regions)

	var out []Candidate
	for _, r := range regions {
		if r.Score < minScore {
			continue
		}
		out = append(out, Candidate{
			Box: types.Box{
				X: float64(r.x) / float64(width),
				Y: float64(r.y) / float64(height),
				W: float64(r.width) / float64(width),
				H: float64(r.height) / float64(height),
			},
			Score: r.Score,
		})
		if maxObjects > 0 && len(out) == maxObjects {
			break
		}
	}
	return out
}

type region struct {
	x, y, width, height int
	Score               float64
}

func (r region) area() int { return r.width * r.height }

func (d *Detector) calculateSaliencyMap(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	saliencyMap := make([][]float64, height)
	for i := range saliencyMap {
		saliencyMap[i] = make([]float64, width)
	}

	neighbors := [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			r1, g1, b1, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			var edgeStrength float64
			for _, offset := range neighbors {
				r2, g2, b2, _ := img.At(x+offset[0]+bounds.Min.X, y+offset[1]+bounds.Min.Y).RGBA()
				dr := float64(r1) - float64(r2)
				dg := float64(g1) - float64(g2)
				db := float64(b1) - float64(b2)
				edgeStrength += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			edgeStrength /= 8.0 * 65535.0

			brightness := (float64(r1) + float64(g1) + float64(b1)) / (3.0 * 65535.0)

			saliencyMap[y][x] = d.config.ContrastWeight*edgeStrength + d.config.ColorWeight*brightness
		}
	}

	return saliencyMap
}

func (d *Detector) findImportantRegions(saliencyMap [][]float64, width, height int) []region {
	var regions []region

	imageArea := width * height
	minArea := int(float64(imageArea) * d.config.MinRegionRatio)

	windowSizes := []int{width / 12, width / 8, width / 4, width / 2}
	for _, windowSize := range windowSizes {
		if windowSize < 10 {
			continue
		}
		step := windowSize / 4
		if step < 1 {
			step = 1
		}
		for y := 0; y <= height-windowSize; y += step {
			for x := 0; x <= width-windowSize; x += step {
				r := region{x: x, y: y, width: windowSize, height: windowSize}
				if r.area() < minArea {
					continue
				}
				r.Score = regionScore(saliencyMap, r)
				if r.Score > d.config.EdgeThreshold {
					regions = append(regions, r)
				}
			}
		}
	}

	// Sort by score, descending.
	for i := 0; i < len(regions)-1; i++ {
		for j := i + 1; j < len(regions); j++ {
			if regions[i].Score < regions[j].Score {
				regions[i], regions[j] = regions[j], regions[i]
			}
		}
	}

	return regions
}

// suppressOverlaps drops regions overlapping an already accepted one by
// more than MaxOverlapRatio of their own area.
func (d *Detector) suppressOverlaps(regions []region) []region {
	var kept []region
	for _, r := range regions {
		overlapping := false
		for _, k := range kept {
			if overlapRatio(r, k) > d.config.MaxOverlapRatio {
				overlapping = true
				break
			}
		}
		if !overlapping {
			kept = append(kept, r)
		}
	}
	return kept
}

func regionScore(saliencyMap [][]float64, r region) float64 {
	var total float64
	count := 0
	for y := r.y; y < r.y+r.height && y < len(saliencyMap); y++ {
		for x := r.x; x < r.x+r.width && x < len(saliencyMap[0]); x++ {
			total += saliencyMap[y][x]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func overlapRatio(a, b region) float64 {
	ix0 := maxInt(a.x, b.x)
	iy0 := maxInt(a.y, b.y)
	ix1 := minInt(a.x+a.width, b.x+b.width)
	iy1 := minInt(a.y+a.height, b.y+b.height)
	if ix1 <= ix0 || iy1 <= iy0 {
		return 0
	}
	inter := float64((ix1 - ix0) * (iy1 - iy0))
	return inter / float64(a.area())
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
