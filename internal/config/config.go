package config

import (
	"fmt"
	"path/filepath"
)

// Config holds the application configuration.
type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Verbose   bool            `mapstructure:"verbose"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Segmenter SegmenterConfig `mapstructure:"segmenter"`
	Identify  IdentifyConfig  `mapstructure:"identify"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Output    OutputConfig    `mapstructure:"output"`
}

// WorkspaceConfig holds the data directory layout. Directory roles are
// fixed; only the root is configurable.
type WorkspaceConfig struct {
	DataDir  string `mapstructure:"data_dir"`
	KeepFile string `mapstructure:"keep_file"`
}

// InputImagesDir is where master images live for the current run.
func (w WorkspaceConfig) InputImagesDir() string {
	return filepath.Join(w.DataDir, "input_images")
}

// SegmentedObjectsDir is where per-object crops are written.
func (w WorkspaceConfig) SegmentedObjectsDir() string {
	return filepath.Join(w.DataDir, "segmented_objects")
}

// OutputDir is where metadata documents and rendered report images go.
func (w WorkspaceConfig) OutputDir() string {
	return filepath.Join(w.DataDir, "output")
}

// TempDir is the upload staging area.
func (w WorkspaceConfig) TempDir() string {
	return filepath.Join(w.DataDir, "temp")
}

// MetadataFile is the shared per-object metadata document.
func (w WorkspaceConfig) MetadataFile() string {
	return filepath.Join(w.OutputDir(), "metadata.json")
}

// FinalMappingFile is the object-keyed mapping document.
func (w WorkspaceConfig) FinalMappingFile() string {
	return filepath.Join(w.OutputDir(), "final_mapping.json")
}

// FinalMetadataFile is the terminal report document.
func (w WorkspaceConfig) FinalMetadataFile() string {
	return filepath.Join(w.OutputDir(), "final_metadata.json")
}

// BackendConfig selects and configures the model-inference backend.
type BackendConfig struct {
	Name        string `mapstructure:"name"`
	URL         string `mapstructure:"url"`
	VisionModel string `mapstructure:"vision_model"`
	TextModel   string `mapstructure:"text_model"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
}

// SegmenterConfig holds configuration for object detection/segmentation.
// Backend selects between the vision-model detector and the local
// saliency fallback.
type SegmenterConfig struct {
	Backend      string  `mapstructure:"backend"`
	MaxObjects   int     `mapstructure:"max_objects"`
	MinScore     float64 `mapstructure:"min_score"`
	MaxImageSize int     `mapstructure:"max_image_size"`
	SendFormat   string  `mapstructure:"send_format"`
	SendSize     int     `mapstructure:"send_size"`
	SendQuality  int     `mapstructure:"send_quality"`
}

// IdentifyConfig holds configuration for zero-shot identification.
type IdentifyConfig struct {
	Threshold float64  `mapstructure:"threshold"`
	Labels    []string `mapstructure:"labels"`
}

// ExtractConfig holds configuration for text extraction.
type ExtractConfig struct {
	MinImageSize int `mapstructure:"min_image_size"`
}

// OutputConfig holds configuration for rendered report images.
type OutputConfig struct {
	JPEGQuality     int    `mapstructure:"jpeg_quality"`
	AnnotatedPrefix string `mapstructure:"annotated_prefix"`
	TableSuffix     string `mapstructure:"table_suffix"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Workspace: WorkspaceConfig{
			DataDir:  "data",
			KeepFile: ".gitkeep",
		},
		Backend: BackendConfig{
			Name:        "ollama",
			URL:         "http://localhost:11434",
			VisionModel: "llava:13b",
			TextModel:   "llama3.1:8b",
			TimeoutSec:  300,
		},
		Segmenter: SegmenterConfig{
			Backend:      "model",
			MaxObjects:   10,
			MinScore:     0.5,
			MaxImageSize: 800,
			SendFormat:   "jpg",
			SendSize:     1536,
			SendQuality:  85,
		},
		Identify: IdentifyConfig{
			Threshold: 0.25,
			Labels:    DefaultLabels(),
		},
		Extract: ExtractConfig{
			MinImageSize: 10,
		},
		Output: OutputConfig{
			JPEGQuality:     85,
			AnnotatedPrefix: "annotated_",
			TableSuffix:     "_summary_table",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend.Name {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("backend.name must be one of ollama, llamacpp (got %q)", c.Backend.Name)
	}

	switch c.Segmenter.Backend {
	case "model", "saliency":
	default:
		return fmt.Errorf("segmenter.backend must be one of model, saliency (got %q)", c.Segmenter.Backend)
	}

	if c.Workspace.DataDir == "" {
		return fmt.Errorf("workspace.data_dir cannot be empty")
	}

	if c.Identify.Threshold < 0 || c.Identify.Threshold >= 1 {
		return fmt.Errorf("identify.threshold must be in [0, 1)")
	}

	if len(c.Identify.Labels) == 0 {
		return fmt.Errorf("identify.labels cannot be empty")
	}

	if c.Segmenter.MaxObjects < 1 {
		return fmt.Errorf("segmenter.max_objects must be positive")
	}

	if c.Segmenter.MinScore < 0 || c.Segmenter.MinScore > 1 {
		return fmt.Errorf("segmenter.min_score must be between 0 and 1")
	}

	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100")
	}

	return nil
}
