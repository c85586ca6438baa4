package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"racenotes/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set storage url and api_key (or export RACENOTES_STORAGE_KEY) before uploading.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Storage URL:     %s\n", cfg.Storage.URL)
			fmt.Fprintf(out, "Storage bucket:  %s\n", cfg.Storage.Bucket)
			fmt.Fprintf(out, "API key set:     %s\n", yesNo(strings.TrimSpace(cfg.Storage.APIKey) != ""))
			fmt.Fprintf(out, "Staging dir:     %s\n", cfg.Paths.StagingDir)
			fmt.Fprintf(out, "Data dir:        %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Log dir:         %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Image bounds:    %dx%d q%d\n", cfg.Media.ImageMaxWidth, cfg.Media.ImageMaxHeight, cfg.Media.ImageQuality)
			fmt.Fprintf(out, "Video bounds:    %dx%d @ %s\n", cfg.Media.VideoMaxWidth, cfg.Media.VideoMaxHeight, cfg.Media.VideoBitrate)
			fmt.Fprintf(out, "FFmpeg binary:   %s\n", cfg.FFmpegBinary())
			fmt.Fprintf(out, "FFprobe binary:  %s\n", cfg.FFprobeBinary())
			fmt.Fprintf(out, "Log level:       %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}
}
