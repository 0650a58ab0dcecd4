package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/menta2k/scenescan/internal/config"
)

var (
	// Global configuration, loaded once before any command runs.
	globalConfig *config.Config
	// Configuration file path from --config.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scenescan",
	Short: "Sequential image-analysis pipeline",
	Long: `scenescan processes uploaded images through a sequential analysis
pipeline: object segmentation, zero-shot identification, text extraction,
summarization and report assembly.

Model inference runs against an Ollama server or an OpenAI-compatible
llama.cpp server; a local saliency detector is available as an offline
segmentation fallback.

Examples:
  scenescan run cat.jpg
  scenescan run --data-dir /var/lib/scenescan photos/*.jpg
  scenescan inspect`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/scenescan, /etc/scenescan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("data-dir", "", "workspace data directory")
	rootCmd.PersistentFlags().String("backend", "", "model backend (ollama, llamacpp)")
	rootCmd.PersistentFlags().String("backend-url", "", "model server URL")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("workspace.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("backend.name", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend-url"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}
		setupLogging()
	}
}

// initConfig loads configuration from file, environment and bound flags.
func initConfig() {
	loader := config.NewLoader()

	cfg, err := loader.LoadWithFile(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	globalConfig = cfg
}

func setupLogging() {
	var level slog.Level
	if globalConfig.Verbose {
		level = slog.LevelDebug
	} else {
		switch globalConfig.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
