package videoenc

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

func runFFmpeg(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			return fmt.Errorf("%s: %w", binary, err)
		}
		return fmt.Errorf("%s: %w: %s", binary, err, lastLine(detail))
	}
	return nil
}

// lastLine keeps error text bounded; ffmpeg puts the actionable message last.
func lastLine(output string) string {
	lines := strings.Split(output, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
