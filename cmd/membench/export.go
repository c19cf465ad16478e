package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memorybench/harness/store"
)

func newExportCommand(flags *globalFlags) *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export <runId>",
		Short: "Export a run as JSON or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dbDSN == "" {
				return fmt.Errorf("export requires --db")
			}
			runID := args[0]
			db, err := store.Open(cmd.Context(), flags.dbDSN)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer db.Close()

			var data []byte
			switch format {
			case "json":
				data, err = db.ExportJSON(cmd.Context(), runID)
			case "csv":
				data, err = db.ExportCSV(cmd.Context(), runID)
			default:
				return fmt.Errorf("export: unknown --format %q (expected json or csv)", format)
			}
			if err != nil {
				return err
			}

			path := outPath
			if path == "" {
				path = runID + "." + format
			}
			return os.WriteFile(path, data, 0o644)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "json|csv")
	cmd.Flags().StringVar(&outPath, "output", "", "output file path (defaults to {runId}.{format})")

	return cmd
}
