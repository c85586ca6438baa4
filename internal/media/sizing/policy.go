// Package sizing holds the pure size policy for media compression: bounding
// boxes, quality and bitrate ladders, and hard ceilings. No I/O, no failure
// modes.
package sizing

// ImagePolicy declares the compression targets for still images.
type ImagePolicy struct {
	MaxWidth  int
	MaxHeight int
	// Quality is the initial JPEG-scale encode quality.
	Quality int
	// FallbackQuality is used for the single more aggressive re-encode when
	// the first result exceeds MaxEncodedBytes.
	FallbackQuality int
	MaxEncodedBytes int64
	// PNGConvertBytes is the source size above which PNGs are re-encoded as
	// JPEG instead of kept lossless.
	PNGConvertBytes int64
}

// VideoPolicy declares the compression targets for videos.
type VideoPolicy struct {
	MaxWidth  int
	MaxHeight int
	// Bitrate is an ffmpeg-style target bitrate for the first pass.
	Bitrate         string
	MaxFrameRate    float64
	MaxEncodedBytes int64
	// Fallback bounds and bitrate for the single more aggressive pass.
	FallbackMaxWidth  int
	FallbackMaxHeight int
	FallbackBitrate   string
}

// DefaultImagePolicy returns the image targets the application ships with.
func DefaultImagePolicy() ImagePolicy {
	return ImagePolicy{
		MaxWidth:        1920,
		MaxHeight:       1080,
		Quality:         85,
		FallbackQuality: 50,
		MaxEncodedBytes: 10 * 1024 * 1024,
		PNGConvertBytes: 2 * 1024 * 1024,
	}
}

// DefaultVideoPolicy returns the video targets the application ships with.
func DefaultVideoPolicy() VideoPolicy {
	return VideoPolicy{
		MaxWidth:          1280,
		MaxHeight:         720,
		Bitrate:           "1M",
		MaxFrameRate:      30,
		MaxEncodedBytes:   50 * 1024 * 1024,
		FallbackMaxWidth:  854,
		FallbackMaxHeight: 480,
		FallbackBitrate:   "500k",
	}
}

// FitWithin scales (width, height) down to fit the bounding box while
// preserving aspect ratio. Images inside the box are returned unchanged;
// there is never any upscaling.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int, bool) {
	if width <= 0 || height <= 0 || maxWidth <= 0 || maxHeight <= 0 {
		return width, height, false
	}
	if width <= maxWidth && height <= maxHeight {
		return width, height, false
	}

	targetWidth := maxWidth
	targetHeight := roundedScale(height, maxWidth, width)
	if targetHeight > maxHeight {
		targetHeight = maxHeight
		targetWidth = roundedScale(width, maxHeight, height)
	}
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight, true
}

// FitWithinEven is FitWithin with both result dimensions rounded down to the
// nearest even integer, as required for macroblock-aligned video encoders.
// Rounding applies even when no resize occurs so odd sources still encode.
func FitWithinEven(width, height, maxWidth, maxHeight int) (int, int, bool) {
	targetWidth, targetHeight, resized := FitWithin(width, height, maxWidth, maxHeight)
	evenWidth, evenHeight := evenDown(targetWidth), evenDown(targetHeight)
	if evenWidth != targetWidth || evenHeight != targetHeight {
		resized = true
	}
	return evenWidth, evenHeight, resized
}

// roundedScale computes value*numerator/denominator with round-half-up.
func roundedScale(value, numerator, denominator int) int {
	return (value*numerator + denominator/2) / denominator
}

func evenDown(v int) int {
	if v%2 != 0 {
		v--
	}
	if v < 2 {
		v = 2
	}
	return v
}
