// Package testutil provides shared test helpers for setting up vaults,
// taxonomies, and cache databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notamaton/internal/index"
	"github.com/starford/notamaton/internal/taxonomy"
	"github.com/starford/notamaton/internal/vault"
)

// SampleTaxonomy is a small taxonomy used across tests. It mixes both
// accepted topic layouts: explicit keyword lists and plain topic names.
const SampleTaxonomy = `História Mundial:
  Revoluções:
    Revolução Francesa:
      - revolução
      - frança
      - liberalismo
    Revolução Russa:
      - revolução
      - bolchevique
  As relações internacionais:
    - O Concerto Europeu
    - A Guerra Fria
Política Internacional:
  O Brasil e a América do Sul:
    O MERCOSUL:
      - mercosul
      - integração
      - tratado de assunção
ECONOMIA:
  Macroeconomia:
    Política monetária:
      - inflação
      - juros
      - banco central
`

// TestVault creates a temporary vault directory with an FS store using
// the default ignore patterns.
func TestVault(t *testing.T) (string, *vault.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := vault.NewFS(dir, []string{"*template*", "cacd_feedback.md", "cacd_study_report.md", "*.processed.md"})
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteNote writes a note file under the vault directory.
func WriteNote(t *testing.T, dir, rel, content string) {
	t.Helper()
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestTaxonomy loads the sample taxonomy from a temp file.
func TestTaxonomy(t *testing.T) *taxonomy.Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomia.yaml")
	if err := os.WriteFile(path, []byte(SampleTaxonomy), 0o644); err != nil {
		t.Fatal(err)
	}
	idx, err := taxonomy.Load(path)
	if err != nil {
		t.Fatalf("load sample taxonomy: %v", err)
	}
	return idx
}

// TestDB creates a temporary SQLite cache that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "cache.db")
	db, err := index.Open(dbFile)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
