package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"racenotes/internal/services"
)

// Kind identifies the broad media category an upload belongs to.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Extension sets recognized by classification. The accepted-upload set in
// upload.go is narrower: HEIC/HEIF and M4V arrive only through callers that
// bypass the model-layer validation (e.g. pre-validated desktop imports).
var (
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".heic": {}, ".heif": {},
	}
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".mov": {}, ".avi": {}, ".m4v": {},
	}
)

// Classify maps a filename to its media kind based on extension alone.
// Unrecognized extensions are an error, never a silent default.
func Classify(filename string) (Kind, error) {
	ext := NormalizedExtension(filename)
	if _, ok := imageExtensions[ext]; ok {
		return KindImage, nil
	}
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo, nil
	}
	return "", services.Wrap(services.ErrClassification, "media", "classify",
		fmt.Sprintf("unsupported file type: %s", ext), nil)
}

// NormalizedExtension returns the lowercase extension including the dot.
func NormalizedExtension(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

// IsImageExtension reports whether ext (with dot, any case) classifies as an image.
func IsImageExtension(ext string) bool {
	_, ok := imageExtensions[strings.ToLower(ext)]
	return ok
}

// IsVideoExtension reports whether ext (with dot, any case) classifies as a video.
func IsVideoExtension(ext string) bool {
	_, ok := videoExtensions[strings.ToLower(ext)]
	return ok
}
