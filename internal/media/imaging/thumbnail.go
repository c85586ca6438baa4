package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"racenotes/internal/media/sizing"
)

const thumbnailQuality = 80

// Thumbnail renders a JPEG preview bounded by maxWidth x maxHeight. The
// source is orientation-corrected and flattened like the main compression
// path.
func Thumbnail(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("thumbnail decode: %w", err)
	}
	if format == "jpeg" {
		if orientation := jpegOrientation(data); orientation > 1 {
			img = applyOrientation(img, orientation)
		}
	}
	img = flattenOntoWhite(img)

	bounds := img.Bounds()
	width, height, resize := sizing.FitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)
	if resize {
		img = scale(img, width, height)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("thumbnail encode: %w", err)
	}
	return buf.Bytes(), nil
}
