package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestFindFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.hcl"))
	touch(t, filepath.Join(dir, "nested", "b.yaml"))
	touch(t, filepath.Join(dir, "nested", "c.txt"))

	files, err := FindFiles([]string{dir, filepath.Join(dir, "a.hcl"), filepath.Join(dir, "missing")}, ".hcl", ".yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "nested", "b.yaml"),
	}, files)
}

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.hcl"))
	touch(t, filepath.Join(dir, "b.yml"))

	files, err := FindFilesByExtension(dir, ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yml")}, files)

	assert.Panics(t, func() { _, _ = FindFiles([]string{dir}) })
}
