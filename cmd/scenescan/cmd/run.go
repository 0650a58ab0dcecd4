package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/scenescan/pkg/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <image> [image...]",
	Short: "Run the analysis pipeline on one or more images",
	Long: `Run the full analysis pipeline on the given images, strictly one at a
time. Each image's run starts with a workspace reset, so the final report
always reflects the most recently processed image.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	p, err := pipeline.New(globalConfig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failures := 0

	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}

		staged, err := p.Workspace().Stage(f, filepath.Base(path))
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to stage %s: %w", path, err)
		}

		result := p.Run(cmd.Context(), staged)
		printResult(out, result)
		if result.Failed() {
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d image(s) failed", failures, len(args))
	}
	return nil
}

func printResult(out io.Writer, result *pipeline.Result) {
	fmt.Fprintf(out, "\n%s (run %s)\n", result.Image, result.RunID)
	for _, stage := range result.Stages {
		mark := "ok"
		if !stage.OK {
			mark = "FAILED: " + stage.Error
		}
		fmt.Fprintf(out, "  %-12s %-8s %s\n", stage.Stage, stage.Duration.Round(time.Millisecond), mark)
	}

	if result.Failed() {
		fmt.Fprintln(out, "  no final report available")
		return
	}

	for master, report := range result.Final {
		fmt.Fprintf(out, "  %s: %d segmented object(s), annotated image at %s\n",
			master, len(report.SegmentedObjects), report.MasterImage)
	}
	if len(result.Final) == 0 {
		fmt.Fprintln(out, "  warning: final report is empty")
	}
}
