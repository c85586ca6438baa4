package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input rejected before the pipeline runs.
	ErrValidation = errors.New("validation error")
	// ErrClassification marks filenames whose extension maps to no media kind.
	ErrClassification = errors.New("classification error")
	// ErrTranscode marks decode or encode failures during media compression.
	ErrTranscode = errors.New("transcode error")
	// ErrUpload marks storage upload failures, including retry exhaustion.
	ErrUpload = errors.New("upload error")
	// ErrUnavailable marks operations that need an absent optional backend.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrConfiguration marks invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures worth retrying.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTerminal reports whether err should fail the pipeline item it occurred on.
// Transient errors are retried by the upload gateway before they surface here
// already wrapped as ErrUpload, so anything still transient is not terminal.
func IsTerminal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrTransient):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
