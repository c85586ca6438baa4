package imaging

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// NewFFmpegHEICConverter returns a HEICConverter that shells out to ffmpeg to
// extract the primary frame as PNG. Temp files are removed on every exit
// path. Callers should only wire this when the ffmpeg backend was detected.
func NewFFmpegHEICConverter(binary string) HEICConverter {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return func(ctx context.Context, data []byte) ([]byte, error) {
		dir, err := os.MkdirTemp("", "racenotes-heic-")
		if err != nil {
			return nil, fmt.Errorf("heic temp dir: %w", err)
		}
		defer os.RemoveAll(dir)

		inputPath := filepath.Join(dir, "input.heic")
		outputPath := filepath.Join(dir, "frame.png")
		if err := os.WriteFile(inputPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("heic write input: %w", err)
		}

		cmd := exec.CommandContext(ctx, binary,
			"-hide_banner", "-loglevel", "error",
			"-i", inputPath,
			"-frames:v", "1",
			"-y", outputPath,
		)
		if output, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("heic convert: %w: %s", err, strings.TrimSpace(string(output)))
		}

		converted, err := os.ReadFile(outputPath)
		if err != nil {
			return nil, fmt.Errorf("heic read output: %w", err)
		}
		return converted, nil
	}
}
