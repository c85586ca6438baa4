// Package videoenc implements the video compression stage. The real
// transcoder drives ffmpeg inside a scoped staging workspace; when the
// backend is absent a pass-through variant is constructed instead, chosen
// once at startup.
//
// Unlike image compression, encode failures here are terminal for the
// affected upload. Pass-through only happens on the backend-absent branch.
package videoenc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"racenotes/internal/logging"
	"racenotes/internal/media"
	"racenotes/internal/media/ffprobe"
	"racenotes/internal/media/sizing"
	"racenotes/internal/services"
	"racenotes/internal/staging"
)

// Result is the outcome of a video compression attempt.
type Result struct {
	Data     []byte
	Filename string
}

// Transcoder compresses video payloads.
type Transcoder interface {
	// Compress transcodes the payload. The returned filename always carries
	// the target container extension for the real variant.
	Compress(ctx context.Context, data []byte, filename string) (Result, error)
	// Available reports whether a real encoding backend is wired.
	Available() bool
}

// Options configures the ffmpeg-backed transcoder.
type Options struct {
	Policy        sizing.VideoPolicy
	FFmpegBinary  string
	FFprobeBinary string
	StagingRoot   string
	// MinFreeBytes aborts transcoding when the staging filesystem has less
	// free space than this. Zero disables the check.
	MinFreeBytes int64
	Logger       *slog.Logger
}

// FFmpegTranscoder compresses videos by shelling out to ffmpeg.
type FFmpegTranscoder struct {
	opts   Options
	logger *slog.Logger
}

// NewFFmpeg builds the real transcoder. Callers are expected to have
// verified backend availability via deps.VideoBackend.
func NewFFmpeg(opts Options) *FFmpegTranscoder {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(opts.FFprobeBinary) == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	return &FFmpegTranscoder{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "videoenc"),
	}
}

// Available implements Transcoder.
func (t *FFmpegTranscoder) Available() bool { return true }

// Compress decodes the container, re-encodes at a bounded bitrate and frame
// rate, and applies one more aggressive pass when the result still exceeds
// the ceiling. Workspace artifacts are removed on every exit path.
func (t *FFmpegTranscoder) Compress(ctx context.Context, data []byte, filename string) (Result, error) {
	if t.opts.MinFreeBytes > 0 {
		if free, err := staging.FreeBytes(t.opts.StagingRoot); err == nil && free < t.opts.MinFreeBytes {
			return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "staging",
				fmt.Sprintf("insufficient free space: %d bytes available", free), nil)
		}
	}

	workspace, err := staging.NewWorkspace(t.opts.StagingRoot)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "staging", "", err)
	}
	defer workspace.Remove()

	inputPath := workspace.Path("input" + media.NormalizedExtension(filename))
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "staging", "write input", err)
	}

	probe, err := probeMedia(ctx, t.opts.FFprobeBinary, inputPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "probe", "", err)
	}
	stream, ok := probe.VideoStream()
	if !ok {
		return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "probe", "no video stream in container", nil)
	}

	plan := buildPlan(stream, t.opts.Policy.MaxWidth, t.opts.Policy.MaxHeight, t.opts.Policy.Bitrate, t.opts.Policy.MaxFrameRate)
	outputPath := workspace.Path("output.mp4")
	if err := runEncoder(ctx, t.opts.FFmpegBinary, encodeArgs(inputPath, outputPath, plan)); err != nil {
		return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "encode", "", err)
	}
	encoded, err := os.ReadFile(outputPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "encode", "read output", err)
	}

	if int64(len(encoded)) > t.opts.Policy.MaxEncodedBytes {
		// One reduced pass only, re-encoded from the original input.
		reduced := buildPlan(stream, t.opts.Policy.FallbackMaxWidth, t.opts.Policy.FallbackMaxHeight,
			t.opts.Policy.FallbackBitrate, t.opts.Policy.MaxFrameRate)
		reducedPath := workspace.Path("output_reduced.mp4")
		if err := runEncoder(ctx, t.opts.FFmpegBinary, encodeArgs(inputPath, reducedPath, reduced)); err != nil {
			return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "encode-reduced", "", err)
		}
		if encoded, err = os.ReadFile(reducedPath); err != nil {
			return Result{}, services.Wrap(services.ErrTranscode, "videoenc", "encode-reduced", "read output", err)
		}
		t.logger.Info("applied reduced encoding pass",
			logging.String(logging.FieldFilename, filename),
			logging.Int("width", reduced.Width),
			logging.Int("height", reduced.Height),
			logging.String("bitrate", reduced.Bitrate),
		)
	}

	t.logger.Debug("video compressed",
		logging.String(logging.FieldFilename, filename),
		logging.Int("in_bytes", len(data)),
		logging.Int("out_bytes", len(encoded)),
		logging.Float64("duration_s", probe.DurationSeconds()),
	)

	return Result{Data: encoded, Filename: renameToMP4(filename)}, nil
}

// encodePlan captures the target parameters for one ffmpeg pass.
type encodePlan struct {
	Width     int
	Height    int
	Resize    bool
	FrameRate float64
	Bitrate   string
}

func buildPlan(stream ffprobe.Stream, maxWidth, maxHeight int, bitrate string, maxFrameRate float64) encodePlan {
	width, height, resize := sizing.FitWithinEven(stream.Width, stream.Height, maxWidth, maxHeight)
	plan := encodePlan{Width: width, Height: height, Resize: resize, Bitrate: bitrate}
	if fps := stream.FrameRate(); maxFrameRate > 0 && fps > maxFrameRate {
		plan.FrameRate = maxFrameRate
	}
	return plan
}

func encodeArgs(inputPath, outputPath string, plan encodePlan) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", inputPath}
	if plan.Resize {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", plan.Width, plan.Height))
	}
	if plan.FrameRate > 0 {
		args = append(args, "-r", strconv.FormatFloat(plan.FrameRate, 'f', -1, 64))
	}
	args = append(args,
		"-c:v", "libx264",
		"-b:v", plan.Bitrate,
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-y", outputPath,
	)
	return args
}

func renameToMP4(filename string) string {
	base := filename
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	return base + ".mp4"
}
