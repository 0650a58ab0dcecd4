package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/menta2k/scenescan/pkg/metadata"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the persisted pipeline documents from the last run",
	Long: `Print the metadata, mapping and final report documents produced by the
most recent pipeline run. Useful for debugging stage output without
re-running the models.`,
	RunE: inspectDocuments,
}

func init() {
	inspectCmd.Flags().Bool("records", false, "print only the per-object metadata records")
	rootCmd.AddCommand(inspectCmd)
}

func inspectDocuments(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ws := globalConfig.Workspace

	store := metadata.NewStore(ws.MetadataFile())
	records, err := store.Load()
	if err != nil {
		if errors.Is(err, metadata.ErrNoDocument) {
			fmt.Fprintln(out, "no metadata document found; run the pipeline first")
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "metadata: %d record(s) in %s\n", len(records), store.Path())
	for _, rec := range records {
		label := "-"
		if rec.Detection != nil {
			label = fmt.Sprintf("%s (%.2f)", rec.Detection.Description, rec.Detection.Probability)
		}
		fmt.Fprintf(out, "  %-30s %s\n", rec.ImageID, label)
	}

	recordsOnly, _ := cmd.Flags().GetBool("records")
	if recordsOnly {
		return nil
	}

	for _, path := range []string{ws.FinalMappingFile(), ws.FinalMetadataFile()} {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(out, "\n%s: not available\n", path)
			continue
		}
		fmt.Fprintf(out, "\n%s:\n%s\n", path, data)
	}
	return nil
}
