package pipeline

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"

	"racenotes/internal/media"
	"racenotes/internal/media/ffprobe"
	"racenotes/internal/services"
	"racenotes/internal/staging"
)

// MediaInfo describes a local media file without processing it.
type MediaInfo struct {
	Filename  string
	Kind      media.Kind
	Extension string
	SizeBytes int64
	SizeMB    float64
	// Image fields. Zero when the payload could not be decoded.
	Width  int
	Height int
	Format string
	// Video fields, filled only when a probe backend is available.
	DurationSeconds float64
	FrameRate       float64
}

// Inspector reports media metadata. Video probing requires ffprobe; without
// it video files still get kind and size.
type Inspector struct {
	ffprobeBinary string
	stagingRoot   string
	probeVideo    bool
}

// NewInspector builds an inspector. probeVideo should reflect backend
// availability as resolved at startup.
func NewInspector(ffprobeBinary, stagingRoot string, probeVideo bool) *Inspector {
	return &Inspector{
		ffprobeBinary: ffprobeBinary,
		stagingRoot:   stagingRoot,
		probeVideo:    probeVideo,
	}
}

// Inspect classifies the item and extracts dimensions and timing metadata.
func (i *Inspector) Inspect(ctx context.Context, item Item) (MediaInfo, error) {
	kind, err := media.Classify(item.Filename)
	if err != nil {
		return MediaInfo{}, err
	}
	info := MediaInfo{
		Filename:  item.Filename,
		Kind:      kind,
		Extension: media.NormalizedExtension(item.Filename),
		SizeBytes: int64(len(item.Data)),
		SizeMB:    media.SizeMB(int64(len(item.Data))),
	}

	switch kind {
	case media.KindImage:
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(item.Data)); err == nil {
			info.Width = cfg.Width
			info.Height = cfg.Height
			info.Format = format
		}
	case media.KindVideo:
		if !i.probeVideo {
			break
		}
		probe, err := i.probe(ctx, item)
		if err != nil {
			return MediaInfo{}, err
		}
		if stream, ok := probe.VideoStream(); ok {
			info.Width = stream.Width
			info.Height = stream.Height
			info.FrameRate = stream.FrameRate()
		}
		info.DurationSeconds = probe.DurationSeconds()
		info.Format = probe.Format.FormatName
	}
	return info, nil
}

func (i *Inspector) probe(ctx context.Context, item Item) (ffprobe.Result, error) {
	workspace, err := staging.NewWorkspace(i.stagingRoot)
	if err != nil {
		return ffprobe.Result{}, services.Wrap(services.ErrUnavailable, "pipeline", "inspect", "", err)
	}
	defer workspace.Remove()

	path := workspace.Path("probe" + media.NormalizedExtension(item.Filename))
	if err := os.WriteFile(path, item.Data, 0o644); err != nil {
		return ffprobe.Result{}, services.Wrap(services.ErrUnavailable, "pipeline", "inspect", "write probe input", err)
	}
	result, err := probeFile(ctx, i.ffprobeBinary, path)
	if err != nil {
		return ffprobe.Result{}, services.Wrap(services.ErrUnavailable, "pipeline", "inspect", "", err)
	}
	return result, nil
}

var probeFile = ffprobe.Inspect

// SetProbeForTests overrides file probing and returns a restore func.
func SetProbeForTests(fn func(ctx context.Context, binary string, path string) (ffprobe.Result, error)) func() {
	previous := probeFile
	probeFile = fn
	return func() { probeFile = previous }
}
