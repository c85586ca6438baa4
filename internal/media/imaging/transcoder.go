package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/webp" // register WebP decoder

	"racenotes/internal/logging"
	"racenotes/internal/media"
	"racenotes/internal/media/sizing"
)

// HEICConverter turns a HEIC/HEIF payload into a payload the standard image
// stack can decode. Nil means HEIC inputs take the skipped-original path.
type HEICConverter func(ctx context.Context, data []byte) ([]byte, error)

// Result is the outcome of an image compression attempt.
//
// When Skipped is true the Data and Filename are the untouched originals and
// Reason describes why compression was abandoned. The caller uploads the
// original bytes; a skipped compression is never a pipeline failure.
type Result struct {
	Data     []byte
	Filename string
	Width    int
	Height   int
	Skipped  bool
	Reason   string
}

// Transcoder compresses still images according to an image size policy.
type Transcoder struct {
	policy sizing.ImagePolicy
	heic   HEICConverter
	logger *slog.Logger
}

// NewTranscoder builds an image transcoder. The HEIC converter may be nil.
func NewTranscoder(policy sizing.ImagePolicy, heic HEICConverter, logger *slog.Logger) *Transcoder {
	return &Transcoder{
		policy: policy,
		heic:   heic,
		logger: logging.NewComponentLogger(logger, "imaging"),
	}
}

// Compress decodes, orients, flattens, resizes, and re-encodes an image.
// Decode or encode problems produce a skipped result, never an error.
func (t *Transcoder) Compress(ctx context.Context, data []byte, filename string) Result {
	skipped := func(reason string, err error) Result {
		if err != nil {
			reason = fmt.Sprintf("%s: %v", reason, err)
		}
		logging.WarnWithContext(t.logger, "image compression skipped", "image_compression_skipped",
			logging.String(logging.FieldFilename, filename),
			logging.String("reason", reason),
			logging.String(logging.FieldImpact, "original bytes uploaded uncompressed"),
		)
		return Result{Data: data, Filename: filename, Skipped: true, Reason: reason}
	}

	ext := media.NormalizedExtension(filename)
	payload := data
	sourceIsHEIC := ext == ".heic" || ext == ".heif"
	if sourceIsHEIC {
		if t.heic == nil {
			return skipped("no decoder for HEIC input", nil)
		}
		converted, err := t.heic(ctx, data)
		if err != nil {
			return skipped("HEIC conversion failed", err)
		}
		payload = converted
	}

	img, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return skipped("decode failed", err)
	}

	// Only JPEG carries EXIF we need to honor here. HEIC frames arrive via
	// ffmpeg, which applies the rotation while decoding, so the extracted
	// frame is already upright.
	if format == "jpeg" {
		if orientation := jpegOrientation(payload); orientation > 1 {
			img = applyOrientation(img, orientation)
		}
	}

	img = flattenOntoWhite(img)

	bounds := img.Bounds()
	targetWidth, targetHeight, resize := sizing.FitWithin(bounds.Dx(), bounds.Dy(), t.policy.MaxWidth, t.policy.MaxHeight)
	if resize {
		img = scale(img, targetWidth, targetHeight)
	}

	outFormat, outName := t.encodePlan(format, filename, int64(len(data)), sourceIsHEIC)
	encoded, err := encode(img, outFormat, t.policy.Quality)
	if err != nil {
		return skipped("encode failed", err)
	}

	// One more aggressive pass only; no open-ended quality ladder.
	if int64(len(encoded)) > t.policy.MaxEncodedBytes {
		encoded, err = encode(img, "jpeg", t.policy.FallbackQuality)
		if err != nil {
			return skipped("fallback encode failed", err)
		}
		outName = renameExtension(filename, ".jpg")
	}

	t.logger.Debug("image compressed",
		logging.String(logging.FieldFilename, filename),
		logging.Int("in_bytes", len(data)),
		logging.Int("out_bytes", len(encoded)),
		logging.Int("width", targetWidth),
		logging.Int("height", targetHeight),
	)

	return Result{
		Data:     encoded,
		Filename: outName,
		Width:    targetWidth,
		Height:   targetHeight,
	}
}

// encodePlan decides the output format and filename. HEIC/HEIF and WebP fall
// outside the preferred encodable set and become JPEG; large PNGs are
// converted to JPEG as well. Everything else keeps its container.
func (t *Transcoder) encodePlan(decodedFormat, filename string, sourceBytes int64, sourceIsHEIC bool) (string, string) {
	switch {
	case sourceIsHEIC:
		return "jpeg", renameExtension(filename, ".jpg")
	case decodedFormat == "webp":
		return "jpeg", renameExtension(filename, ".jpg")
	case decodedFormat == "png" && sourceBytes > t.policy.PNGConvertBytes:
		return "jpeg", renameExtension(filename, ".jpg")
	default:
		return decodedFormat, filename
	}
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flattenOntoWhite composites paletted or alpha-carrying images over an
// opaque white background so lossy re-encoding never sees transparency.
func flattenOntoWhite(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}
	bounds := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)
	return flat
}

func isOpaque(img image.Image) bool {
	if _, ok := img.(*image.Paletted); ok {
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func scale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func renameExtension(filename, ext string) string {
	base := filename
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	return base + ext
}
