// Package store supplies documents to the orchestrator and records edited
// results. The orchestration loop depends only on the DocumentStore
// interface; FileStore is the filesystem-backed default.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/quillworks/autoedit/pkg/types"
)

// DocumentStore loads the initial document state and durably records the
// final edited content.
type DocumentStore interface {
	Load(name string) (types.DocumentState, error)
	Save(name string, state types.DocumentState) error
}

// languageByExt maps file extensions to the language tag attached to the
// document state. Unknown extensions get "text".
var languageByExt = map[string]string{
	".c":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".css":  "css",
	".go":   "go",
	".h":    "c",
	".html": "html",
	".java": "java",
	".js":   "javascript",
	".json": "json",
	".jsx":  "javascript",
	".md":   "markdown",
	".py":   "python",
	".rb":   "ruby",
	".rs":   "rust",
	".sh":   "shell",
	".sql":  "sql",
	".toml": "toml",
	".ts":   "typescript",
	".tsx":  "typescript",
	".txt":  "text",
	".xml":  "xml",
	".yaml": "yaml",
	".yml":  "yaml",
}

// InferLanguage returns the language tag for a document name.
func InferLanguage(name string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return lang
	}
	return "text"
}

// defaultIgnorePatterns are applied on top of any .gitignore in the root.
var defaultIgnorePatterns = []string{
	".git/",
	".autoedit/",
	"node_modules/",
	"vendor/",
	"*.lock",
}

// FileStore reads and writes documents under a root directory. Paths that
// escape the root or match ignore rules are refused.
type FileStore struct {
	root  string
	rules *ignore.GitIgnore
}

// NewFileStore roots a store at dir, compiling ignore rules from the
// directory's .gitignore (if present) plus built-in defaults.
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving store root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("store root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", dir)
	}

	lines := append([]string{}, defaultIgnorePatterns...)
	if data, err := os.ReadFile(filepath.Join(abs, ".gitignore")); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			lines = append(lines, line)
		}
	}

	return &FileStore{root: abs, rules: ignore.CompileIgnoreLines(lines...)}, nil
}

// Root returns the absolute root directory of the store.
func (fs *FileStore) Root() string {
	return fs.root
}

func (fs *FileStore) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty document name")
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("document path %q escapes store root", name)
	}
	if fs.rules.MatchesPath(cleaned) {
		return "", fmt.Errorf("document path %q is ignored", name)
	}
	return filepath.Join(fs.root, cleaned), nil
}

func (fs *FileStore) Load(name string) (types.DocumentState, error) {
	path, err := fs.resolve(name)
	if err != nil {
		return types.DocumentState{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.DocumentState{}, fmt.Errorf("loading document %s: %w", name, err)
	}
	return types.DocumentState{
		Title:    name,
		Language: InferLanguage(name),
		Content:  string(data),
	}, nil
}

// Save writes atomically: content goes to a temp file in the target
// directory first, then replaces the destination with a rename.
func (fs *FileStore) Save(name string, state types.DocumentState) error {
	path, err := fs.resolve(name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, ".autoedit-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(state.Content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

// List walks the root and returns editable document paths, relative to the
// root and sorted, skipping ignored files.
func (fs *FileStore) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(fs.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(fs.root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if fs.rules.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// MemoryStore keeps documents in a map. Used in tests and by the serve
// command for ad hoc documents not backed by a file.
type MemoryStore struct {
	docs map[string]types.DocumentState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]types.DocumentState)}
}

func (m *MemoryStore) Put(name string, state types.DocumentState) {
	m.docs[name] = state
}

func (m *MemoryStore) Load(name string) (types.DocumentState, error) {
	state, ok := m.docs[name]
	if !ok {
		return types.DocumentState{}, fmt.Errorf("document %q not found", name)
	}
	return state, nil
}

func (m *MemoryStore) Save(name string, state types.DocumentState) error {
	m.docs[name] = state
	return nil
}
