package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/autoedit/pkg/types"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	return fs, dir
}

func TestLoadInfersLanguageAndTitle(t *testing.T) {
	fs, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	doc, err := fs.Load("main.go")
	require.NoError(t, err)
	assert.Equal(t, "main.go", doc.Title)
	assert.Equal(t, "go", doc.Language)
	assert.Equal(t, "package main\n", doc.Content)
}

func TestSaveIsAtomicAndRoundTrips(t *testing.T) {
	fs, dir := newTestStore(t)

	err := fs.Save("docs/readme.md", types.DocumentState{Content: "# Hello\n"})
	require.NoError(t, err)

	doc, err := fs.Load("docs/readme.md")
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n", doc.Content)
	assert.Equal(t, "markdown", doc.Language)

	// No temp residue left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "docs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "readme.md", entries[0].Name())
}

func TestPathEscapeRefused(t *testing.T) {
	fs, _ := newTestStore(t)

	_, err := fs.Load("../outside.txt")
	assert.Error(t, err)
	err = fs.Save("/etc/passwd", types.DocumentState{})
	assert.Error(t, err)
}

func TestIgnoredPathsRefused(t *testing.T) {
	fs, dir := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "pkg.json"), []byte("{}"), 0o644))

	_, err := fs.Load("node_modules/pkg.json")
	assert.Error(t, err)
}

func TestGitignoreRulesApplied(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.secret\n# comment\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.secret"), []byte("x"), 0o644))
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = fs.Load("key.secret")
	assert.Error(t, err)
}

func TestListSkipsIgnored(t *testing.T) {
	fs, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "dep.go"), []byte("x"), 0o644))

	names, err := fs.List()
	require.NoError(t, err)
	assert.Contains(t, names, "a.md")
	assert.NotContains(t, names, "vendor/dep.go")
}

func TestInferLanguage(t *testing.T) {
	assert.Equal(t, "go", InferLanguage("pkg/store/store.go"))
	assert.Equal(t, "markdown", InferLanguage("README.md"))
	assert.Equal(t, "text", InferLanguage("Makefile"))
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	m.Put("doc", types.DocumentState{Content: "v1"})

	doc, err := m.Load("doc")
	require.NoError(t, err)
	assert.Equal(t, "v1", doc.Content)

	require.NoError(t, m.Save("doc", types.DocumentState{Content: "v2"}))
	doc, _ = m.Load("doc")
	assert.Equal(t, "v2", doc.Content)

	_, err = m.Load("missing")
	assert.Error(t, err)
}
