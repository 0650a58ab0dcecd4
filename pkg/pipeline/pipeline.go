// Package pipeline sequences the analysis stages for each uploaded image:
// Reset, Segment, Identify, ExtractText, Summarize, Map, Assemble. Stages
// run strictly one after another; each stage's precondition is the
// previous stage's postcondition, and all inter-stage state flows through
// the record slice with a persisted snapshot after every mutation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/internal/workspace"
	"github.com/menta2k/scenescan/pkg/client"
	"github.com/menta2k/scenescan/pkg/extract"
	"github.com/menta2k/scenescan/pkg/identify"
	"github.com/menta2k/scenescan/pkg/llamacpp"
	"github.com/menta2k/scenescan/pkg/mapping"
	"github.com/menta2k/scenescan/pkg/metadata"
	"github.com/menta2k/scenescan/pkg/ollama"
	"github.com/menta2k/scenescan/pkg/report"
	"github.com/menta2k/scenescan/pkg/segment"
	"github.com/menta2k/scenescan/pkg/summarize"
	"github.com/menta2k/scenescan/pkg/types"
)

// Stage names, in execution order.
const (
	StageReset     = "reset"
	StageSegment   = "segment"
	StageIdentify  = "identify"
	StageExtract   = "extract_text"
	StageSummarize = "summarize"
	StageMap       = "map"
	StageAssemble  = "assemble"
)

// StageStatus records one stage's outcome for the consumer.
type StageStatus struct {
	Stage    string        `json:"stage"`
	OK       bool          `json:"ok"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result is the outcome of one image's run. Err is non-nil when a
// structural failure aborted the remaining stages; Stages always lists
// every stage that was attempted.
type Result struct {
	RunID   string               `json:"run_id"`
	Image   string               `json:"image"`
	Stages  []StageStatus        `json:"stages"`
	Records []types.ObjectRecord `json:"records,omitempty"`
	Mapping types.ObjectMapping  `json:"mapping,omitempty"`
	Final   types.FinalMetadata  `json:"final,omitempty"`
	Err     error                `json:"-"`
}

// Failed reports whether the run aborted before completing all stages.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Pipeline drives the full stage sequence for uploaded images.
type Pipeline struct {
	cfg        *config.Config
	ws         *workspace.Workspace
	segmenter  segment.Segmenter
	identifier *identify.Identifier
	extractor  *extract.Extractor
	summarizer *summarize.Summarizer
	store      *metadata.Store
	mapper     *mapping.Mapper
	assembler  *report.Assembler
}

// New constructs a Pipeline from configuration, wiring the selected chat
// backend into every model-driven stage.
func New(cfg *config.Config) (*Pipeline, error) {
	timeout := time.Duration(cfg.Backend.TimeoutSec) * time.Second

	var modelClient client.ModelClient
	var err error
	switch cfg.Backend.Name {
	case "llamacpp":
		modelClient, err = llamacpp.NewClient(cfg.Backend.URL, timeout)
	default:
		modelClient, err = ollama.NewClient(cfg.Backend.URL, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Backend.Name, err)
	}

	var segmenter segment.Segmenter
	if cfg.Segmenter.Backend == "saliency" {
		segmenter = segment.NewSaliency(cfg.Segmenter)
	} else {
		segmenter = segment.NewModel(modelClient, cfg.Backend.VisionModel, cfg.Segmenter)
	}

	return NewWithComponents(
		cfg,
		segmenter,
		identify.New(modelClient, cfg.Backend.VisionModel, cfg.Identify),
		extract.New(modelClient, cfg.Backend.VisionModel, cfg.Extract),
		summarize.New(modelClient, cfg.Backend.TextModel),
	), nil
}

// NewWithComponents constructs a Pipeline with explicit stage
// implementations. Tests use this to substitute stub backends.
func NewWithComponents(cfg *config.Config, segmenter segment.Segmenter, identifier *identify.Identifier,
	extractor *extract.Extractor, summarizer *summarize.Summarizer,
) *Pipeline {
	store := metadata.NewStore(cfg.Workspace.MetadataFile())
	return &Pipeline{
		cfg:        cfg,
		ws:         workspace.New(cfg.Workspace),
		segmenter:  segmenter,
		identifier: identifier,
		extractor:  extractor,
		summarizer: summarizer,
		store:      store,
		mapper:     mapping.New(store, cfg.Workspace.InputImagesDir(), cfg.Workspace.FinalMappingFile()),
		assembler:  report.New(cfg.Workspace, cfg.Output),
	}
}

// Workspace exposes the pipeline's workspace for upload staging.
func (p *Pipeline) Workspace() *workspace.Workspace {
	return p.ws
}

// Store exposes the metadata store for inspection tooling.
func (p *Pipeline) Store() *metadata.Store {
	return p.store
}

// Run executes the full stage sequence for one uploaded image. A
// structural failure aborts the remaining stages; per-item failures stay
// inside their stage.
func (p *Pipeline) Run(ctx context.Context, imageName string) *Result {
	result := &Result{
		RunID: uuid.NewString(),
		Image: imageName,
	}
	log := slog.With("run_id", result.RunID, "image", imageName)
	log.Info("starting pipeline run")

	ws := p.cfg.Workspace

	var sources map[string]string
	var records []types.ObjectRecord

	if !p.runStage(result, StageReset, func() error {
		return p.ws.Reset(imageName)
	}) {
		return result
	}

	if !p.runStage(result, StageSegment, func() error {
		objects, err := p.segmenter.Segment(ctx, ws.InputImagesDir(), ws.SegmentedObjectsDir())
		if err != nil {
			return err
		}
		sources = make(map[string]string, len(objects))
		for _, obj := range objects {
			sources[obj.ImageID] = obj.SourceImage
		}
		log.Info("segmentation complete", "objects", len(objects))
		return nil
	}) {
		return result
	}

	if !p.runStage(result, StageIdentify, func() error {
		var err error
		records, err = p.identifier.BuildRecords(ctx, ws.SegmentedObjectsDir(), sources)
		if err != nil {
			return err
		}
		log.Info("identification complete", "records", len(records))
		return p.store.Save(records)
	}) {
		return result
	}

	if !p.runStage(result, StageExtract, func() error {
		records = p.extractor.EnrichRecords(ctx, records, ws.SegmentedObjectsDir())
		return p.store.Save(records)
	}) {
		return result
	}

	if !p.runStage(result, StageSummarize, func() error {
		records = p.summarizer.EnrichRecords(ctx, records)
		return p.store.Save(records)
	}) {
		return result
	}
	result.Records = records

	if !p.runStage(result, StageMap, func() error {
		mapped, err := p.mapper.GenerateFinalMapping()
		if err != nil {
			return err
		}
		result.Mapping = mapped
		return nil
	}) {
		return result
	}

	if !p.runStage(result, StageAssemble, func() error {
		final, err := p.assembler.GenerateFinalMetadata(result.Mapping)
		if err != nil {
			return err
		}
		result.Final = final
		return nil
	}) {
		return result
	}

	log.Info("pipeline run complete", "master_images", len(result.Final))
	return result
}

// RunBatch processes uploaded images strictly one at a time. Each image's
// Reset deletes the prior image's intermediate artifacts, so final
// reports only reflect the most recently processed input.
func (p *Pipeline) RunBatch(ctx context.Context, imageNames []string) []*Result {
	results := make([]*Result, 0, len(imageNames))
	for _, name := range imageNames {
		results = append(results, p.Run(ctx, name))
	}
	return results
}

// runStage executes fn and records its status. It returns false when the
// stage failed structurally, which aborts the remainder of the run.
func (p *Pipeline) runStage(result *Result, stage string, fn func() error) bool {
	start := time.Now()
	err := fn()

	status := StageStatus{
		Stage:    stage,
		OK:       err == nil,
		Duration: time.Since(start),
	}
	if err != nil {
		status.Error = err.Error()
		result.Err = fmt.Errorf("stage %s failed: %w", stage, err)
		slog.Error("pipeline stage failed", "stage", stage, "error", err)
	}
	result.Stages = append(result.Stages, status)
	return err == nil
}
