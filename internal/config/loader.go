package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "scenescan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SCENESCAN"
)

// Loader handles loading configuration from files, environment variables
// and flag bindings.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader on the global viper
// instance so cobra flag bindings are honored.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// newLoaderWith creates a loader on a private viper instance. Tests use
// it to avoid touching the global instance.
func newLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads configuration from the search paths and environment, applies
// defaults, unmarshals and validates.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	config := Default()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "scenescan"))
	}
	l.v.AddConfigPath("/etc/scenescan")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	defaults := Default()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("workspace.data_dir", defaults.Workspace.DataDir)
	l.v.SetDefault("workspace.keep_file", defaults.Workspace.KeepFile)

	l.v.SetDefault("backend.name", defaults.Backend.Name)
	l.v.SetDefault("backend.url", defaults.Backend.URL)
	l.v.SetDefault("backend.vision_model", defaults.Backend.VisionModel)
	l.v.SetDefault("backend.text_model", defaults.Backend.TextModel)
	l.v.SetDefault("backend.timeout_sec", defaults.Backend.TimeoutSec)

	l.v.SetDefault("segmenter.backend", defaults.Segmenter.Backend)
	l.v.SetDefault("segmenter.max_objects", defaults.Segmenter.MaxObjects)
	l.v.SetDefault("segmenter.min_score", defaults.Segmenter.MinScore)
	l.v.SetDefault("segmenter.max_image_size", defaults.Segmenter.MaxImageSize)
	l.v.SetDefault("segmenter.send_format", defaults.Segmenter.SendFormat)
	l.v.SetDefault("segmenter.send_size", defaults.Segmenter.SendSize)
	l.v.SetDefault("segmenter.send_quality", defaults.Segmenter.SendQuality)

	l.v.SetDefault("identify.threshold", defaults.Identify.Threshold)
	l.v.SetDefault("identify.labels", defaults.Identify.Labels)

	l.v.SetDefault("extract.min_image_size", defaults.Extract.MinImageSize)

	l.v.SetDefault("output.jpeg_quality", defaults.Output.JPEGQuality)
	l.v.SetDefault("output.annotated_prefix", defaults.Output.AnnotatedPrefix)
	l.v.SetDefault("output.table_suffix", defaults.Output.TableSuffix)
}
