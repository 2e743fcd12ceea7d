package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/notamaton/internal/apperr"
	"github.com/starford/notamaton/internal/checksum"
	"github.com/starford/notamaton/internal/parser"
)

// FS implements Store backed by the local file system.
type FS struct {
	root   string // absolute path to vault directory
	ignore []string
}

// NewFS creates a new FS store rooted at the given directory, which must
// already exist. Ignore patterns are doublestar globs matched (lowercased)
// against both the relative path and the file name.
func NewFS(root string, ignore []string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	lowered := make([]string, len(ignore))
	for i, p := range ignore {
		lowered[i] = strings.ToLower(p)
	}
	return &FS{root: abs, ignore: lowered}, nil
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("vault: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("vault: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("vault: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// ignored reports whether a relative note path matches any ignore glob.
func (f *FS) ignored(rel string) bool {
	lowRel := strings.ToLower(filepath.ToSlash(rel))
	base := filepath.Base(lowRel)
	for _, pat := range f.ignore {
		if ok, _ := doublestar.Match(pat, lowRel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// Walk streams metadata for every .md file under the root, one at a time,
// so large vaults are never held in memory. Dot directories are pruned and
// dot-prefixed files skipped.
func (f *FS) Walk(fn func(meta NoteMeta) error) error {
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if f.ignored(rel) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return fn(NoteMeta{Path: rel, Checksum: checksum.Sum(data)})
	})
	if err != nil {
		return fmt.Errorf("vault: walk: %w", err)
	}
	return nil
}

// Load reads and parses a note. A malformed front-matter block yields an
// *apperr.ParseError so callers can skip the note and continue.
func (f *FS) Load(path string) (*Document, error) {
	raw, err := f.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(path, raw)
	if err != nil {
		return nil, &apperr.ParseError{Path: path, Err: err}
	}
	return doc, nil
}

// Apply merges fields into the note's front-matter and rewrites the file.
// The original is copied to a sibling backup first; only once the backup is
// synced to disk is the note itself replaced (temp file → fsync → rename),
// so a crash at any point leaves either the original or a valid backup.
func (f *FS) Apply(path string, fields map[string]interface{}) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("vault: read %s: %w", path, err)
	}

	merged, err := parser.Merge(raw, fields, FieldOrder)
	if err != nil {
		return &apperr.ParseError{Path: path, Err: err}
	}

	if err := writeSynced(abs+BackupSuffix, raw); err != nil {
		return fmt.Errorf("vault: backup %s: %w", path, err)
	}
	if err := atomicWrite(abs, merged); err != nil {
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the raw bytes of a vault file.
func (f *FS) ReadFile(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vault: read %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile atomically writes an auxiliary vault file (no backup).
func (f *FS) WriteFile(path string, data []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := atomicWrite(abs, data); err != nil {
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	return nil
}

// Rename moves a vault file, used when archiving a fully processed ledger.
func (f *FS) Rename(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	return nil
}

// writeSynced writes data and confirms it reached disk before returning.
func writeSynced(abs string, data []byte) error {
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// atomicWrite writes content via tmp file → fsync → rename.
func atomicWrite(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".notamaton-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	success = true
	return nil
}
