package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oliversimiyu/support-defmis/internal"
	"github.com/oliversimiyu/support-defmis/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the conversation transcript to file",
	Long: `Export the conversation transcript in various formats
(jsonl, md, yaml, json).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveStateDir()
		if err != nil {
			return err
		}
		cfg, err := loadClientConfig(dir)
		if err != nil {
			return err
		}
		ids, err := openIdentity(dir)
		if err != nil {
			return err
		}
		defer func() { _ = ids.Close() }()

		customerID, err := ids.GetOrCreateCustomerID()
		if err != nil {
			return err
		}

		api := internal.NewAPIClient(cfg.BaseURL)
		messages, err := api.History(customerID)
		if err != nil {
			return err
		}

		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outPath := filepath.Join(outputDir, fmt.Sprintf("conversation_%s.%s", customerID, exporter.Extension()))

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()

		transcript := &export.Transcript{Messages: messages}
		if err := exporter.Export(transcript, f); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d messages to %s\n", len(messages), outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")
	rootCmd.AddCommand(exportCmd)
}
