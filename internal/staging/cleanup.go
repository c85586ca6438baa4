package staging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"racenotes/internal/logging"
)

// CleanStaleResult contains the outcome of a stale workspace cleanup.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes upload workspaces older than maxAge. Workspaces are
// only ever live for the duration of one pipeline call, so anything old
// belongs to a crashed or killed process.
func CleanStale(root string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logging.WarnWithContext(logger, "failed to remove stale workspace", "staging_cleanup_failed",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
		} else {
			result.Removed = append(result.Removed, dirPath)
			if logger != nil {
				logger.Info("removed stale workspace",
					logging.String("path", dirPath),
					logging.Duration("age", time.Since(info.ModTime())),
					logging.String(logging.FieldEventType, "staging_cleanup"),
				)
			}
		}
	}

	return result
}
