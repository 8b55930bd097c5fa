package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFiles writes each entry of files, keyed by slash-separated relative
// path, under a fresh temporary directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

// WriteFile writes a single file named name and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	return filepath.Join(WriteFiles(t, map[string]string{name: content}), filepath.FromSlash(name))
}
