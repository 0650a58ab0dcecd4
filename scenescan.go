// Package scenescan provides a sequential image-analysis pipeline.
//
// Given an uploaded image the pipeline detects and segments objects,
// identifies each object against a candidate label set, extracts any
// visible text, summarizes that text and assembles a consolidated
// per-image report: an annotated master image, per-object crops and
// rendered summary tables.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"os"
//
//		"github.com/menta2k/scenescan"
//	)
//
//	func main() {
//		analyzer, err := scenescan.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		f, err := os.Open("cat.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer f.Close()
//
//		result, err := analyzer.ProcessUpload(context.Background(), f, "cat.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, stage := range result.Stages {
//			log.Printf("%s ok=%v (%s)", stage.Stage, stage.OK, stage.Duration)
//		}
//	}
//
// All inter-stage state travels through the workspace on disk: every
// stage reads the previous stage's outputs from a known path and writes
// its own to a known path. Stages run strictly sequentially; running two
// pipeline invocations against the same workspace concurrently is
// unsupported and will corrupt shared state.
package scenescan

import (
	"context"
	"io"

	"github.com/menta2k/scenescan/internal/config"
	"github.com/menta2k/scenescan/pkg/pipeline"
)

// Version of the scenescan library.
const Version = "1.0.0"

// Analyzer is the high-level entry point wrapping configuration and the
// pipeline driver.
type Analyzer struct {
	config   *config.Config
	pipeline *pipeline.Pipeline
}

// New creates an Analyzer with default configuration.
func New() (*Analyzer, error) {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates an Analyzer with custom configuration.
func NewWithConfig(cfg *config.Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Analyzer{config: cfg, pipeline: p}, nil
}

// Config returns the active configuration.
func (a *Analyzer) Config() *config.Config {
	return a.config
}

// Pipeline returns the underlying pipeline driver.
func (a *Analyzer) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// ProcessUpload stages an uploaded image and runs the full pipeline on
// it. The returned result lists every stage's outcome; result.Err is set
// when a structural failure aborted the run.
func (a *Analyzer) ProcessUpload(ctx context.Context, r io.Reader, name string) (*pipeline.Result, error) {
	staged, err := a.pipeline.Workspace().Stage(r, name)
	if err != nil {
		return nil, err
	}
	return a.pipeline.Run(ctx, staged), nil
}

// ProcessImage runs the full pipeline on an image already staged in the
// workspace temp directory (or present in the input directory).
func (a *Analyzer) ProcessImage(ctx context.Context, name string) *pipeline.Result {
	return a.pipeline.Run(ctx, name)
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
