// Package staging manages per-upload scratch directories for video
// transcoding. Workspaces are exclusively owned by one in-flight call and
// removed on every exit path; anything left behind by a crashed process is
// reclaimed by CleanStale.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"golang.org/x/sys/unix"
)

const workspacePrefix = "upload-"

// Workspace is a scratch directory for a single transcode call.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a unique scratch directory under root.
func NewWorkspace(root string) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("staging: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create root: %w", err)
	}
	dir := filepath.Join(root, workspacePrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path returns a file path inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() {
	if w == nil || w.Dir == "" {
		return
	}
	_ = os.RemoveAll(w.Dir)
}

// FreeBytes reports the free space of the filesystem containing path.
func FreeBytes(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("staging: statfs %s: %w", path, err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
