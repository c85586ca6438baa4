package videoenc

import (
	"racenotes/internal/deps"
	"racenotes/internal/logging"
)

// New resolves backend availability once and returns the matching variant.
// Missing binaries select the pass-through transcoder for the whole run
// instead of being re-checked per upload.
func New(opts Options) Transcoder {
	ffmpeg, ffprobeStatus, ok := deps.VideoBackend(opts.FFmpegBinary, opts.FFprobeBinary)
	if ok {
		return NewFFmpeg(opts)
	}
	logger := logging.NewComponentLogger(opts.Logger, "videoenc")
	for _, status := range []deps.Status{ffmpeg, ffprobeStatus} {
		if !status.Available {
			logger.Warn("encoding dependency missing",
				logging.String("binary", status.Command),
				logging.String("detail", status.Detail),
			)
		}
	}
	return NewPassthrough(opts.Logger)
}
