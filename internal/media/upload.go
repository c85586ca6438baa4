package media

import (
	"fmt"
	"strings"

	"racenotes/internal/services"
)

// MaxUploadBytes is the global ceiling for a single accepted upload.
const MaxUploadBytes = 100 * 1024 * 1024

// acceptedExtensions is the model-layer allowlist for new uploads.
var acceptedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".mp4": {}, ".mov": {}, ".avi": {},
}

// Upload is a raw media payload handed to the pipeline. Construct with
// NewUpload so the invariants hold before any processing is attempted.
type Upload struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	Data        []byte
}

// NewUpload validates and builds an Upload. The declared size must match the
// payload, the extension must be in the accepted set, and the payload must
// not exceed the global ceiling. Violations fail here, never downstream.
func NewUpload(filename, contentType string, data []byte) (Upload, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return Upload{}, services.Wrap(services.ErrValidation, "media", "new-upload", "empty filename", nil)
	}
	if reason, ok := Validate(filename, int64(len(data))); !ok {
		return Upload{}, services.Wrap(services.ErrValidation, "media", "new-upload", reason, nil)
	}
	return Upload{
		Filename:    filename,
		ContentType: strings.TrimSpace(contentType),
		SizeBytes:   int64(len(data)),
		Data:        data,
	}, nil
}

// Validate checks a filename and size against the model-layer rules and
// returns a descriptive reason when the pair is rejected.
func Validate(filename string, sizeBytes int64) (reason string, ok bool) {
	ext := NormalizedExtension(filename)
	if ext == "" {
		return "missing file extension", false
	}
	if _, accepted := acceptedExtensions[ext]; !accepted {
		return fmt.Sprintf("unsupported file type: %s", ext), false
	}
	if sizeBytes > MaxUploadBytes {
		return fmt.Sprintf("file too large: %.1fMB > %.0fMB",
			float64(sizeBytes)/(1024*1024), float64(MaxUploadBytes)/(1024*1024)), false
	}
	return "", true
}

// SizeMB converts a byte count to megabytes the way stored sizes are reported.
func SizeMB(sizeBytes int64) float64 {
	return float64(sizeBytes) / (1024 * 1024)
}
