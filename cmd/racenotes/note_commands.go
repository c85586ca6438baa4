package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"racenotes/internal/notes"
)

func newNoteCommand(ctx *commandContext) *cobra.Command {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Create and browse racing notes",
	}
	noteCmd.AddCommand(newNoteAddCommand(ctx))
	noteCmd.AddCommand(newNoteListCommand(ctx))
	noteCmd.AddCommand(newNoteShowCommand(ctx))
	return noteCmd
}

func newNoteAddCommand(ctx *commandContext) *cobra.Command {
	var input notes.NewNote
	var category, sessionType string

	cmd := &cobra.Command{
		Use:   "add <body>",
		Short: "Add a note (hashtags in the body become tags)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			input.Body = args[0]
			input.Category = notes.Category(category)
			input.SessionType = notes.SessionType(sessionType)
			note, err := store.CreateNote(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created note %s\n", note.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Note category (General, Track Specific, Strategy, Other)")
	cmd.Flags().StringVar(&input.Track, "track", "", "Track name")
	cmd.Flags().StringVar(&input.Series, "series", "", "Series name")
	cmd.Flags().StringVar(&input.Driver, "driver", "", "Driver name")
	cmd.Flags().StringVar(&sessionType, "session", "", "Session type (Practice, Qualifying, Race)")
	cmd.Flags().BoolVar(&input.Shared, "shared", false, "Mark the note as shared")
	return cmd
}

func newNoteListCommand(ctx *commandContext) *cobra.Command {
	var filters notes.Filters
	var sessionType, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filters.SessionType = notes.SessionType(sessionType)
			filters.Category = notes.Category(category)
			results, total, err := store.ListNotes(cmd.Context(), filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No notes match.")
				return nil
			}
			fmt.Fprintln(out, renderNoteList(results))
			fmt.Fprintf(out, "%d of %d notes\n", len(results), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&filters.Text, "text", "", "Match text in the note body")
	cmd.Flags().StringVar(&filters.Track, "track", "", "Filter by track")
	cmd.Flags().StringVar(&filters.Series, "series", "", "Filter by series")
	cmd.Flags().StringVar(&filters.Driver, "driver", "", "Filter by driver")
	cmd.Flags().StringVar(&sessionType, "session", "", "Filter by session type")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&filters.Tag, "tag", "", "Filter by tag")
	cmd.Flags().BoolVar(&filters.SharedOnly, "shared", false, "Only shared notes")
	cmd.Flags().IntVar(&filters.Limit, "limit", 0, "Page size (default 20, max 100)")
	cmd.Flags().IntVar(&filters.Offset, "offset", 0, "Page offset")
	return cmd
}

func newNoteShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one note with its tags and media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			details, err := store.GetNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Note %s (%s)\n", details.ID, details.CreatedAt.Local().Format("2006-01-02 15:04"))
			if details.Track != "" {
				fmt.Fprintf(out, "Track:    %s\n", details.Track)
			}
			if details.Series != "" {
				fmt.Fprintf(out, "Series:   %s\n", details.Series)
			}
			if details.Driver != "" {
				fmt.Fprintf(out, "Driver:   %s\n", details.Driver)
			}
			if details.SessionType != "" {
				fmt.Fprintf(out, "Session:  %s\n", details.SessionType)
			}
			fmt.Fprintf(out, "Category: %s\n", details.Category)
			fmt.Fprintf(out, "Shared:   %s\n", yesNo(details.Shared))
			if len(details.Tags) > 0 {
				labels := make([]string, 0, len(details.Tags))
				for _, tag := range details.Tags {
					labels = append(labels, "#"+tag.Label)
				}
				fmt.Fprintf(out, "Tags:     %s\n", strings.Join(labels, " "))
			}
			fmt.Fprintf(out, "\n%s\n", details.Body)
			for _, record := range details.Media {
				fmt.Fprintf(out, "\n[%s] %s (%.1f MB)\n  %s\n", record.Kind, record.Filename, record.SizeMB, record.FileURL)
			}
			return nil
		},
	}
}

func renderNoteList(results []notes.NoteDetails) string {
	rows := make([][]string, 0, len(results))
	for _, item := range results {
		tags := make([]string, 0, len(item.Tags))
		for _, tag := range item.Tags {
			tags = append(tags, "#"+tag.Label)
		}
		rows = append(rows, []string{
			item.ID[:8],
			item.CreatedAt.Local().Format("2006-01-02"),
			item.Track,
			string(item.SessionType),
			truncate(item.Body, 48),
			strings.Join(tags, " "),
			fmt.Sprintf("%d", len(item.Media)),
		})
	}
	return renderTable(
		[]tableColumn{
			{title: "ID"},
			{title: "Date"},
			{title: "Track"},
			{title: "Session"},
			{title: "Note"},
			{title: "Tags"},
			{title: "Media", numeric: true},
		},
		rows,
	)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
