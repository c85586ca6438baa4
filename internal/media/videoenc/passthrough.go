package videoenc

import (
	"context"
	"log/slog"

	"racenotes/internal/logging"
)

// Passthrough stands in for the real transcoder when ffmpeg or ffprobe is
// missing from the host. Payloads are forwarded unchanged so uploads keep
// working, at original size.
type Passthrough struct {
	logger *slog.Logger
}

// NewPassthrough builds the degraded variant.
func NewPassthrough(logger *slog.Logger) *Passthrough {
	return &Passthrough{logger: logging.NewComponentLogger(logger, "videoenc")}
}

// Available implements Transcoder.
func (p *Passthrough) Available() bool { return false }

// Compress returns the payload unchanged and records the degradation.
func (p *Passthrough) Compress(ctx context.Context, data []byte, filename string) (Result, error) {
	logging.WarnWithContext(p.logger, "video backend unavailable, storing original", "video_backend_missing",
		logging.String(logging.FieldFilename, filename),
		logging.Int("bytes", len(data)),
		logging.String(logging.FieldImpact, "video stored at original size"),
	)
	return Result{Data: data, Filename: filename}, nil
}
