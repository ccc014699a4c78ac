package testsupport

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"captiond/internal/artifacts"
)

// WriteFile creates path with exactly size bytes of filler, fabricating
// uploads and audio segments of a known length. A size <= 0 writes one byte.
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
	defer f.Close()

	filler := bytes.Repeat([]byte{0x42}, 32*1024)
	var written int64
	for written < size {
		n := size - written
		if n > int64(len(filler)) {
			n = int64(len(filler))
		}
		if _, err := f.Write(filler[:n]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		written += n
	}
}

// MustOpenArtifacts opens an artifact ledger in a temp directory and
// registers cleanup.
func MustOpenArtifacts(t testing.TB) *artifacts.Store {
	t.Helper()

	store, err := artifacts.Open(context.Background(), filepath.Join(t.TempDir(), "captiond.db"))
	if err != nil {
		t.Fatalf("artifacts.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
