package videoenc

import (
	"context"

	"racenotes/internal/media/ffprobe"
)

var (
	probeMedia = ffprobe.Inspect
	runEncoder = runFFmpeg
)

// SetProbeForTests overrides container probing and returns a restore func.
func SetProbeForTests(fn func(ctx context.Context, binary string, path string) (ffprobe.Result, error)) func() {
	previous := probeMedia
	probeMedia = fn
	return func() { probeMedia = previous }
}

// SetEncoderForTests overrides ffmpeg invocation and returns a restore func.
func SetEncoderForTests(fn func(ctx context.Context, binary string, args []string) error) func() {
	previous := runEncoder
	runEncoder = fn
	return func() { runEncoder = previous }
}
