package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"racenotes/internal/media"
	"racenotes/internal/notes"
	"racenotes/internal/pipeline"
	"racenotes/internal/staging"
)

// staleWorkspaceAge is how old a leftover staging workspace must be before an
// upload session reclaims it.
const staleWorkspaceAge = 24 * time.Hour

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var noteID string

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Compress and upload media files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// One upload session at a time; concurrent sessions would race
			// on staging space accounting.
			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "racenotes.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire upload lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another racenotes upload is already running")
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			staging.CleanStale(cfg.Paths.StagingDir, staleWorkspaceAge, logger)

			items, err := readUploadItems(args)
			if err != nil {
				return err
			}

			p, err := ctx.buildPipeline()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			progress := newProgressPrinter(out, args)
			outcomes := p.ProcessBatch(cmd.Context(), items, progress.update)
			progress.finish()

			fmt.Fprintln(out, renderUploadReport(outcomes))

			if noteID != "" {
				if err := attachOutcomes(cmd, ctx, noteID, outcomes); err != nil {
					return err
				}
			}

			failed := 0
			for _, outcome := range outcomes {
				if outcome.Failed() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&noteID, "note", "", "Attach uploaded media to an existing note")
	return cmd
}

func readUploadItems(paths []string) ([]pipeline.Item, error) {
	items := make([]pipeline.Item, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		items = append(items, pipeline.Item{
			Filename: filepath.Base(path),
			Data:     data,
		})
	}
	return items, nil
}

func attachOutcomes(cmd *cobra.Command, ctx *commandContext, noteID string, outcomes []pipeline.Outcome) error {
	store, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if _, err := store.GetNote(cmd.Context(), noteID); err != nil {
		return err
	}
	for _, outcome := range outcomes {
		if outcome.Failed() {
			continue
		}
		_, err := store.AttachMedia(cmd.Context(), notes.MediaRecord{
			NoteID:   noteID,
			FileURL:  outcome.URL,
			Kind:     outcome.Kind,
			SizeMB:   media.SizeMB(int64(outcome.StoredBytes)),
			Filename: outcome.StoredFilename,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func renderUploadReport(outcomes []pipeline.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		status := "uploaded"
		detail := outcome.URL
		switch {
		case outcome.Failed():
			status = "failed"
			detail = outcome.Err.Error()
		case outcome.CompressionSkipped:
			status = "uploaded (original)"
		}
		rows = append(rows, []string{
			outcome.Filename,
			string(outcome.Kind),
			fmt.Sprintf("%.1f MB", media.SizeMB(int64(outcome.StoredBytes))),
			status,
			detail,
		})
	}
	return renderTable(
		[]tableColumn{
			{title: "File"},
			{title: "Kind"},
			{title: "Stored", numeric: true},
			{title: "Status"},
			{title: "Detail"},
		},
		rows,
	)
}

// progressPrinter writes per-file checkpoints when stdout is a terminal and
// stays silent otherwise.
type progressPrinter struct {
	out   io.Writer
	names []string
	tty   bool
	wrote bool
}

func newProgressPrinter(out io.Writer, names []string) *progressPrinter {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &progressPrinter{out: out, names: names, tty: tty}
}

func (p *progressPrinter) update(index, percent int) {
	if !p.tty || index >= len(p.names) {
		return
	}
	fmt.Fprintf(p.out, "\r%-40s %3d%%", filepath.Base(p.names[index]), percent)
	p.wrote = true
}

func (p *progressPrinter) finish() {
	if p.wrote {
		fmt.Fprint(p.out, "\r"+strings.Repeat(" ", 46)+"\r")
	}
}
