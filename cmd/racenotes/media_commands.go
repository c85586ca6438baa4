package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"racenotes/internal/media"
	"racenotes/internal/media/imaging"
	"racenotes/internal/pipeline"
)

func newMediaCommand(ctx *commandContext) *cobra.Command {
	mediaCmd := &cobra.Command{
		Use:   "media",
		Short: "Inspect and manage media files",
	}
	mediaCmd.AddCommand(newMediaInfoCommand(ctx))
	mediaCmd.AddCommand(newMediaThumbCommand(ctx))
	mediaCmd.AddCommand(newMediaRemoveCommand(ctx))
	return mediaCmd
}

func newMediaInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>...",
		Short: "Show media metadata without uploading",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			_, _, backendOK := videoBackend(cfg)
			inspector := pipeline.NewInspector(cfg.FFprobeBinary(), cfg.Paths.StagingDir, backendOK)

			items, err := readUploadItems(args)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				info, err := inspector.Inspect(cmd.Context(), item)
				if err != nil {
					rows = append(rows, []string{item.Filename, "", "", "", err.Error()})
					continue
				}
				dims := ""
				if info.Width > 0 {
					dims = fmt.Sprintf("%dx%d", info.Width, info.Height)
				}
				detail := info.Format
				if info.DurationSeconds > 0 {
					detail = fmt.Sprintf("%s %.1fs @ %.3g fps", info.Format, info.DurationSeconds, info.FrameRate)
				}
				rows = append(rows, []string{
					info.Filename,
					string(info.Kind),
					fmt.Sprintf("%.1f MB", info.SizeMB),
					dims,
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{
					{title: "File"},
					{title: "Kind"},
					{title: "Size", numeric: true},
					{title: "Dimensions", numeric: true},
					{title: "Detail"},
				},
				rows,
			))
			return nil
		},
	}
}

func newMediaThumbCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var size int

	cmd := &cobra.Command{
		Use:   "thumb <image>",
		Short: "Write a bounded JPEG thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			kind, err := media.Classify(args[0])
			if err != nil {
				return err
			}
			if kind != media.KindImage {
				return fmt.Errorf("%s is not an image", args[0])
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			thumb, err := imaging.Thumbnail(data, size, size)
			if err != nil {
				return err
			}

			target := outputPath
			if target == "" {
				base := args[0]
				ext := filepath.Ext(base)
				target = base[:len(base)-len(ext)] + "_thumb.jpg"
			}
			if err := os.WriteFile(target, thumb, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", target, len(thumb))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Thumbnail destination (default <name>_thumb.jpg)")
	cmd.Flags().IntVar(&size, "size", 200, "Bounding box edge in pixels")
	return cmd
}

func newMediaRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <public-url>...",
		Short: "Delete stored objects by their public URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.storageClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, url := range args {
				if err := client.DeleteByURL(cmd.Context(), url); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %s\n", url)
			}
			return nil
		},
	}
}
