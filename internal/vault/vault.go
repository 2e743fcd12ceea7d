// Package vault is the document store: it discovers note files, parses
// front-matter and body, and performs backed-up, atomic rewrites.
package vault

import (
	"strings"

	"github.com/starford/notamaton/internal/parser"
)

// Front-matter keys managed by the analyzer. Every other key in a note's
// front-matter is opaque and must survive rewrites untouched.
const (
	KeyArea        = "area"
	KeySubarea     = "subarea"
	KeyTopic       = "topico"
	KeyTags        = "tags"
	KeyRelevance   = "relevancia_cacd"
	KeyConnections = "conexoes"
)

// FieldOrder is the order managed keys are appended to front-matter that
// lacks them, keeping committed metadata readable and merges deterministic.
var FieldOrder = []string{KeyArea, KeySubarea, KeyTopic, KeyTags, KeyRelevance, KeyConnections}

// BackupSuffix is appended to a note's path for its sibling backup.
const BackupSuffix = ".bak"

// Document is a parsed note. Owned by the store; mutations happen only
// through Store.Apply, which re-serializes the whole file.
type Document struct {
	Path        string
	Raw         []byte
	Frontmatter map[string]interface{}
	Body        string
	Title       string
}

// NoteMeta is the lightweight discovery record for one note file.
type NoteMeta struct {
	Path     string
	Checksum string
}

// Store is the interface for vault file operations. Paths are always
// relative to the vault root.
type Store interface {
	// Walk streams discovery records for every note file, skipping
	// ignored paths. The walk stops on the first error fn returns.
	Walk(fn func(meta NoteMeta) error) error
	// Load reads and parses a single note.
	Load(path string) (*Document, error)
	// Apply merges fields into the note's front-matter and rewrites the
	// file, taking a sibling backup of the original first.
	Apply(path string, fields map[string]interface{}) error
	// ReadFile returns raw bytes of an auxiliary vault file (ledger, report).
	ReadFile(path string) ([]byte, error)
	// WriteFile atomically writes an auxiliary vault file. No backup.
	WriteFile(path string, data []byte) error
	// Rename moves an auxiliary vault file (ledger archiving).
	Rename(oldPath, newPath string) error
}

// HasCompleteMetadata reports whether a note already carries committed
// classification metadata and needs no fresh proposal.
func HasCompleteMetadata(fm map[string]interface{}) bool {
	if fm == nil {
		return false
	}
	area, _ := fm[KeyArea].(string)
	if strings.TrimSpace(area) == "" {
		return false
	}
	rel, ok := fm[KeyRelevance]
	return ok && rel != nil && rel != ""
}

// ParseDocument builds a Document from raw note bytes.
func ParseDocument(path string, raw []byte) (*Document, error) {
	res, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	title := res.Title
	if title == "" {
		title = stem(path)
	}
	return &Document{
		Path:        path,
		Raw:         raw,
		Frontmatter: res.Frontmatter,
		Body:        res.Body,
		Title:       title,
	}, nil
}

func stem(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".md")
}
