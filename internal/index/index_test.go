package index

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGet_MissOnUnknownPath(t *testing.T) {
	db := openTestDB(t)
	_, hit, err := db.Get("nota.md", "c1", "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Error("unexpected hit on empty cache")
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	const proposal = `{"path":"nota.md","area":"ECONOMIA","relevancia_cacd":3}`

	if err := db.Put("nota.md", "c1", "t1", proposal); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, hit, err := db.Get("nota.md", "c1", "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected hit")
	}
	if got != proposal {
		t.Errorf("proposal = %q", got)
	}
}

func TestGet_MissOnChangedContentOrTaxonomy(t *testing.T) {
	db := openTestDB(t)
	if err := db.Put("nota.md", "c1", "t1", `{}`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, hit, _ := db.Get("nota.md", "c2", "t1"); hit {
		t.Error("hit despite changed content checksum")
	}
	if _, hit, _ := db.Get("nota.md", "c1", "t2"); hit {
		t.Error("hit despite changed taxonomy checksum")
	}
}

func TestPut_BelowThresholdOutcome(t *testing.T) {
	db := openTestDB(t)
	if err := db.Put("fraca.md", "c1", "t1", ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, hit, err := db.Get("fraca.md", "c1", "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("below-threshold result must still be a hit")
	}
	if got != "" {
		t.Errorf("proposal = %q, want empty", got)
	}
}

func TestPut_Upsert(t *testing.T) {
	db := openTestDB(t)
	if err := db.Put("nota.md", "c1", "t1", `{"area":"ECONOMIA"}`); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := db.Put("nota.md", "c2", "t1", `{"area":"Geografia"}`); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, hit, err := db.Get("nota.md", "c2", "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit || got != `{"area":"Geografia"}` {
		t.Errorf("hit=%v proposal=%q", hit, got)
	}
}

func TestPrune_RemovesStaleRows(t *testing.T) {
	db := openTestDB(t)
	for _, p := range []string{"a.md", "b.md", "c.md"} {
		if err := db.Put(p, "c1", "t1", `{}`); err != nil {
			t.Fatalf("Put %s: %v", p, err)
		}
	}
	keep := map[string]struct{}{"a.md": {}, "c.md": {}}
	if err := db.Prune(keep); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	if _, hit, _ := db.Get("b.md", "c1", "t1"); hit {
		t.Error("pruned row still present")
	}
	for p := range keep {
		if _, hit, _ := db.Get(p, "c1", "t1"); !hit {
			t.Errorf("kept row %s lost", p)
		}
	}
}

func TestRecordRunAndLastRun(t *testing.T) {
	db := openTestDB(t)

	got, err := db.LastRun("analyze")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if got != nil {
		t.Fatalf("LastRun on empty table = %+v, want nil", got)
	}

	first := RunRecord{Mode: "analyze", StartedAt: time.Now().Add(-time.Hour), Total: 10, Proposed: 4, Skipped: 5, Failed: 1}
	second := RunRecord{Mode: "analyze", StartedAt: time.Now(), Total: 12, Proposed: 6, Skipped: 5, Failed: 1}
	other := RunRecord{Mode: "process", StartedAt: time.Now(), Total: 4, Applied: 3}
	for _, r := range []RunRecord{first, second, other} {
		if err := db.RecordRun(r); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	got, err = db.LastRun("analyze")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if got == nil {
		t.Fatal("LastRun = nil")
	}
	if got.Total != 12 || got.Proposed != 6 {
		t.Errorf("got %+v, want most recent analyze run", got)
	}

	got, err = db.LastRun("process")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if got == nil || got.Applied != 3 {
		t.Errorf("process run = %+v", got)
	}
}
