package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/lang"
)

func TestDiscoverBasic(t *testing.T) {
	dir := t.TempDir()

	// Create a Go file and a Python file
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.py"), []byte("def main(): pass\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	files, err := Discover(ctx, dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	// Verify file info is populated
	for _, f := range files {
		if f.Path == "" {
			t.Error("expected non-empty Path")
		}
		if f.RelPath == "" {
			t.Error("expected non-empty RelPath")
		}
		if f.Language == "" {
			t.Error("expected non-empty Language")
		}
	}
}

func TestDiscoverCancellation(t *testing.T) {
	dir := t.TempDir()

	// Create a file so the directory isn't empty
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // pre-cancel

	_, err := Discover(ctx, dir, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestDiscoverIgnoresUnsupportedExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "README.md", "# hi\n")

	files, err := Discover(context.Background(), root, nil)
	require.NoError(t, err)

	paths := relPaths(files)
	assert.Contains(t, paths, "main.go")
	assert.NotContains(t, paths, "README.md")
}

func TestDiscoverSkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {}\n")
	writeFile(t, root, "src/index.js", "export const x = 1\n")

	files, err := Discover(context.Background(), root, nil)
	require.NoError(t, err)

	paths := relPaths(files)
	assert.Contains(t, paths, "src/index.js")
	assert.NotContains(t, paths, "node_modules/dep/index.js")
}

func TestDiscoverRespectsMaxFileSize(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'x'
	}
	writeFile(t, root, "big.go", string(big))
	writeFile(t, root, "small.go", "package main\n")

	files, err := Discover(context.Background(), root, &Options{MaxFileSize: 100})
	require.NoError(t, err)

	paths := relPaths(files)
	assert.Contains(t, paths, "small.go")
	assert.NotContains(t, paths, "big.go")
}

func TestDiscoverDetectsLanguage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.rs", "fn main() {}\n")

	files, err := Discover(context.Background(), root, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, lang.Rust, files[0].Language)
}

func TestDiscoverHonorsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "vendor2/lib.go", "package vendor2\n")
	writeFile(t, root, "app.go", "package app\n")
	ignorePath := filepath.Join(root, ".codegraphignore")
	require.NoError(t, os.WriteFile(ignorePath, []byte("vendor2\n"), 0o644))

	files, err := Discover(context.Background(), root, nil)
	require.NoError(t, err)

	paths := relPaths(files)
	assert.Contains(t, paths, "app.go")
	assert.NotContains(t, paths, "vendor2/lib.go")
}
