package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates a payload file of exactly size bytes for upload tests.
// The content is a repeating marker so truncation bugs show up as a size
// mismatch rather than silent success. A size <= 0 writes one byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatalf("close %s: %v", path, err)
		}
	}()

	chunk := bytes.Repeat([]byte("racenotes-fixture."), 1024)
	for written := int64(0); written < size; {
		piece := chunk
		if remaining := size - written; remaining < int64(len(piece)) {
			piece = piece[:remaining]
		}
		n, err := f.Write(piece)
		if err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		written += int64(n)
	}
}
