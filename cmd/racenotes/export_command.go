package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"racenotes/internal/export"
	"racenotes/internal/notes"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outputPath string
	var filters notes.Filters

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export notes to CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			// Export ignores paging: all matches go out.
			filters.Limit = 100
			var all []notes.NoteDetails
			for {
				page, total, err := store.ListNotes(cmd.Context(), filters)
				if err != nil {
					return err
				}
				all = append(all, page...)
				if len(all) >= total || len(page) == 0 {
					break
				}
				filters.Offset += len(page)
			}

			out := cmd.OutOrStdout()
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outputPath, err)
				}
				defer func() { _ = file.Close() }()
				if err := export.Write(file, format, all); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %d notes to %s\n", len(all), outputPath)
				return nil
			}
			return export.Write(out, format, all)
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "csv", "Export format (csv or json)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&filters.Track, "track", "", "Filter by track")
	cmd.Flags().StringVar(&filters.Tag, "tag", "", "Filter by tag")
	cmd.Flags().BoolVar(&filters.SharedOnly, "shared", false, "Only shared notes")
	return cmd
}
