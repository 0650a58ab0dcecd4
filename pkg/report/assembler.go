// Package report assembles the final per-image report: an annotated copy
// of each master image, a rendered summary table per segmented object and
// the terminal metadata document tying them together.
package report

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/internal/utils"
	"github.com/menta2k/scenescan/pkg/imageio"
	"github.com/menta2k/scenescan/pkg/types"
)

// masterLabel is the fixed annotation drawn on master images. Per-object
// boxes are not threaded through to this stage, so the annotation is a
// full-frame placeholder.
const masterLabel = "Master Image"

var annotationColor = color.NRGBA{0, 80, 255, 255}

// Assembler renders report artifacts and writes the final metadata
// document.
type Assembler struct {
	inputDir     string
	segmentedDir string
	outputDir    string
	outPath      string
	cfg          config.OutputConfig
}

// New creates an Assembler over the given directory layout.
func New(ws config.WorkspaceConfig, cfg config.OutputConfig) *Assembler {
	return &Assembler{
		inputDir:     ws.InputImagesDir(),
		segmentedDir: ws.SegmentedObjectsDir(),
		outputDir:    ws.OutputDir(),
		outPath:      ws.FinalMetadataFile(),
		cfg:          cfg,
	}
}

// GenerateFinalMetadata is the terminal join: it enumerates qualifying
// master images, renders their annotated copies and per-object summary
// tables, and writes the final report document. The returned structure is
// also handed back for immediate consumption.
func (a *Assembler) GenerateFinalMetadata(mapping types.ObjectMapping) (types.FinalMetadata, error) {
	masters, err := utils.ListImages(a.inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input-images directory %s: %w", a.inputDir, err)
	}
	if err := utils.EnsureDir(a.outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	final := types.FinalMetadata{}
	for _, name := range masters {
		report, err := a.assembleMaster(name, mapping)
		if err != nil {
			slog.Warn("failed to assemble report for master image, skipping", "image", name, "error", err)
			continue
		}
		final[name] = report
	}

	if err := a.write(final); err != nil {
		return nil, err
	}
	slog.Info("final metadata written", "path", a.outPath, "master_images", len(final))
	return final, nil
}

func (a *Assembler) assembleMaster(name string, mapping types.ObjectMapping) (types.MasterImageReport, error) {
	annotatedPath, err := a.annotateMaster(name)
	if err != nil {
		return types.MasterImageReport{}, err
	}

	report := types.MasterImageReport{
		MasterImage:      annotatedPath,
		SegmentedObjects: []types.ObjectEntry{},
	}

	// Map iteration order is random; sort keys for deterministic output.
	objectNames := make([]string, 0, len(mapping))
	for objectName := range mapping {
		objectNames = append(objectNames, objectName)
	}
	sort.Strings(objectNames)

	for _, objectName := range objectNames {
		entry := mapping[objectName]
		if !belongsTo(entry, name) {
			continue
		}

		objectPath := filepath.Join(a.segmentedDir, objectName)
		if !utils.FileExists(objectPath) {
			slog.Warn("no corresponding segmented image found", "object", objectName, "dir", a.segmentedDir)
			continue
		}

		tablePath, err := a.renderSummaryTable(objectName, entry)
		if err != nil {
			slog.Warn("failed to render summary table, skipping object", "object", objectName, "error", err)
			continue
		}

		report.SegmentedObjects = append(report.SegmentedObjects, types.ObjectEntry{
			ObjectImage:  objectPath,
			SummaryTable: tablePath,
		})
	}

	return report, nil
}

// belongsTo filters objects by parent-image provenance. Entries without
// provenance fall back to the legacy behavior of attaching to every
// master image.
func belongsTo(entry types.MappingEntry, masterName string) bool {
	if entry.SourceImage == "" {
		return true
	}
	if entry.SourceImage == masterName {
		return true
	}
	return entry.SourceImage == strings.TrimSuffix(masterName, filepath.Ext(masterName))
}

// annotateMaster renders the annotated copy of a master image: a
// full-frame bounding box with a fixed label.
func (a *Assembler) annotateMaster(name string) (string, error) {
	img, err := imageio.Load(filepath.Join(a.inputDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to load master image: %w", err)
	}

	annotated := imageio.Annotate(img, types.Box{X: 0, Y: 0, W: 1, H: 1}, masterLabel, annotationColor)

	outPath := filepath.Join(a.outputDir, a.cfg.AnnotatedPrefix+name)
	if err := imageio.Save(annotated, outPath, a.cfg.JPEGQuality); err != nil {
		return "", fmt.Errorf("failed to save annotated image: %w", err)
	}
	return outPath, nil
}

func (a *Assembler) renderSummaryTable(objectName string, entry types.MappingEntry) (string, error) {
	table := renderTable(tableRow(entry))
	outPath := filepath.Join(a.outputDir, fmt.Sprintf("%s%s.jpg", types.ObjectStem(objectName), a.cfg.TableSuffix))
	if err := imageio.Save(table, outPath, a.cfg.JPEGQuality); err != nil {
		return "", fmt.Errorf("failed to save summary table: %w", err)
	}
	return outPath, nil
}

// tableRow formats one mapping entry into the four table columns:
// description, probability to two decimals, texts and summary.
func tableRow(entry types.MappingEntry) []string {
	description := ""
	probability := fmt.Sprintf("%.2f", 0.0)
	if entry.Detection != nil {
		description = entry.Detection.Description
		probability = fmt.Sprintf("%.2f", entry.Detection.Probability)
	}
	summary := ""
	if entry.Summary != nil {
		summary = *entry.Summary
	}
	return []string{description, probability, entry.Texts, summary}
}

func (a *Assembler) write(final types.FinalMetadata) error {
	data, err := json.MarshalIndent(final, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal final metadata: %w", err)
	}
	if err := os.WriteFile(a.outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write final metadata document: %w", err)
	}
	return nil
}
