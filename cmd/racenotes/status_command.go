package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"racenotes/internal/config"
	"racenotes/internal/deps"
	"racenotes/internal/media"
	"racenotes/internal/staging"
)

func videoBackend(cfg *config.Config) (deps.Status, deps.Status, bool) {
	return deps.VideoBackend(cfg.FFmpegBinary(), cfg.FFprobeBinary())
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report backend and dependency availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ffmpeg, ffprobe, backendOK := videoBackend(cfg)
			rows := [][]string{
				statusRow(ffmpeg),
				statusRow(ffprobe),
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					{title: "Dependency"},
					{title: "Available"},
					{title: "Detail"},
				},
				rows,
			))

			if backendOK {
				fmt.Fprintln(out, "Video compression: enabled")
			} else {
				fmt.Fprintln(out, "Video compression: disabled (videos will be stored at original size)")
			}
			fmt.Fprintln(out, "HEIC conversion:  ", enabledDisabled(backendOK))

			fmt.Fprintf(out, "Storage bucket:    %s\n", cfg.Storage.Bucket)
			fmt.Fprintf(out, "Upload ceiling:    %.0f MB per file\n", media.SizeMB(media.MaxUploadBytes))
			fmt.Fprintf(out, "Database:          %s\n", cfg.DatabasePath())

			if free, err := staging.FreeBytes(cfg.Paths.StagingDir); err == nil {
				fmt.Fprintf(out, "Staging free:      %.0f MB\n", media.SizeMB(free))
			}
			return nil
		},
	}
}

func statusRow(status deps.Status) []string {
	detail := status.Detail
	if status.Available {
		detail = status.Command
	}
	return []string{status.Name, yesNo(status.Available), detail}
}

func enabledDisabled(value bool) string {
	if value {
		return "enabled"
	}
	return "disabled"
}
