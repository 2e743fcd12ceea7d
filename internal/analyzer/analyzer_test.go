package analyzer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/notamaton/internal/analyzer"
	"github.com/starford/notamaton/internal/apperr"
	"github.com/starford/notamaton/internal/classifier"
	"github.com/starford/notamaton/internal/index"
	"github.com/starford/notamaton/internal/testutil"
	"github.com/starford/notamaton/internal/vault"
)

const (
	ledgerFile = "cacd_feedback.md"
	reportFile = "cacd_study_report.md"
)

const frenchNote = `---
status: rascunho
---

# Revolução Francesa

A revolução francesa derrubou a monarquia na França. O liberalismo
inspirou a revolução, e a França exportou os ideais revolucionários
para toda a Europa durante as décadas seguintes.
`

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newAnalyzer(t *testing.T, cache index.Cache) (string, *vault.FS, *analyzer.Analyzer) {
	t.Helper()
	dir, store := testutil.TestVault(t)
	idx := testutil.TestTaxonomy(t)
	cls := classifier.New(idx, classifier.DefaultConfig())
	return dir, store, analyzer.New(store, idx, cls, cache, discard, ledgerFile, reportFile)
}

// decideNth rewrites the nth pending checkbox of the ledger with the given
// marker, simulating a human editing the checklist.
func decideNth(t *testing.T, store *vault.FS, n int, marker string) {
	t.Helper()
	data, err := store.ReadFile(ledgerFile)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	seen := 0
	for i, line := range lines {
		if !strings.Contains(line, "Decisão: [ ]") {
			continue
		}
		seen++
		if seen == n {
			lines[i] = strings.Replace(line, "[ ]", "["+marker+"]", 1)
			if err := store.WriteFile(ledgerFile, []byte(strings.Join(lines, "\n"))); err != nil {
				t.Fatalf("write ledger: %v", err)
			}
			return
		}
	}
	t.Fatalf("ledger has fewer than %d pending checkboxes", n)
}

func TestAnalyze_ProposesAndSkips(t *testing.T) {
	dir, store, a := newAnalyzer(t, nil)
	testutil.WriteNote(t, dir, "hist/bastilha.md", frenchNote)
	testutil.WriteNote(t, dir, "pronta.md", "---\narea: ECONOMIA\nrelevancia_cacd: 3\n---\n\nNota já classificada com texto suficiente para o corte.\n")
	testutil.WriteNote(t, dir, "diario.md", "# Diário\n\nComprei pão na padaria hoje cedo e depois caminhei no parque.\n")

	sum, err := a.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if sum.Total != 3 || sum.Proposed != 1 || sum.Skipped != 2 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Pending != 1 {
		t.Errorf("pending = %d, want 1", sum.Pending)
	}

	data, err := store.ReadFile(ledgerFile)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "## Nota: bastilha") {
		t.Errorf("ledger missing proposal entry:\n%s", text)
	}
	if strings.Contains(text, "pronta") || strings.Contains(text, "diario") {
		t.Errorf("ledger contains skipped notes:\n%s", text)
	}
	if !strings.Contains(text, "**Área:** História Mundial") {
		t.Errorf("ledger missing area line:\n%s", text)
	}
}

func TestAnalyze_NoProposalsWritesNoLedger(t *testing.T) {
	dir, store, a := newAnalyzer(t, nil)
	testutil.WriteNote(t, dir, "pronta.md", "---\narea: ECONOMIA\nrelevancia_cacd: 3\n---\ncorpo\n")

	if _, err := a.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := store.ReadFile(ledgerFile); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("ledger err = %v, want ErrNotFound", err)
	}
}

func TestAnalyzeProcess_EndToEnd(t *testing.T) {
	dir, store, a := newAnalyzer(t, nil)
	testutil.WriteNote(t, dir, "hist/bastilha.md", frenchNote)
	ctx := context.Background()

	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Checkbox order follows the field order: área, subárea, tags,
	// relevância, conexões. Approve the classification path and the
	// relevance, reject tags and connections.
	decideNth(t, store, 1, "x")
	decideNth(t, store, 1, "x")
	decideNth(t, store, 1, "-")
	decideNth(t, store, 1, "x")
	decideNth(t, store, 1, "-")

	sum, err := a.Process(ctx)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sum.Applied != 1 || sum.Failed != 0 || sum.Pending != 0 {
		t.Errorf("summary = %+v", sum)
	}

	doc, err := store.Load("hist/bastilha.md")
	if err != nil {
		t.Fatalf("reload note: %v", err)
	}
	fm := doc.Frontmatter
	if fm[vault.KeyArea] != "História Mundial" {
		t.Errorf("area = %v", fm[vault.KeyArea])
	}
	if fm[vault.KeySubarea] != "Revoluções" {
		t.Errorf("subarea = %v", fm[vault.KeySubarea])
	}
	if fm[vault.KeyTopic] != "Revolução Francesa" {
		t.Errorf("topico = %v", fm[vault.KeyTopic])
	}
	if _, present := fm[vault.KeyTags]; present {
		t.Errorf("rejected tags committed: %v", fm[vault.KeyTags])
	}
	if _, present := fm[vault.KeyConnections]; present {
		t.Errorf("rejected connections committed: %v", fm[vault.KeyConnections])
	}
	if rel, ok := fm[vault.KeyRelevance].(int); !ok || rel < 1 || rel > 5 {
		t.Errorf("relevancia_cacd = %v", fm[vault.KeyRelevance])
	}
	if fm["status"] != "rascunho" {
		t.Errorf("unmanaged key lost: %v", fm)
	}
	if !strings.Contains(doc.Body, "derrubou a monarquia") {
		t.Errorf("body altered:\n%s", doc.Body)
	}

	// Fully consumed ledger gets archived.
	if _, err := store.ReadFile(ledgerFile); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("ledger still present: %v", err)
	}
	if _, err := store.ReadFile("cacd_feedback.processed.md"); err != nil {
		t.Errorf("archive missing: %v", err)
	}

	// The note now carries complete metadata, so re-analysis skips it.
	sum, err = a.Analyze(ctx)
	if err != nil {
		t.Fatalf("re-Analyze: %v", err)
	}
	if sum.Proposed != 0 || sum.Skipped != 1 {
		t.Errorf("re-analysis summary = %+v", sum)
	}
}

func TestProcess_PartialApprovalKeepsEntryPending(t *testing.T) {
	dir, store, a := newAnalyzer(t, nil)
	testutil.WriteNote(t, dir, "bastilha.md", frenchNote)
	ctx := context.Background()

	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	decideNth(t, store, 1, "x") // approve area only

	sum, err := a.Process(ctx)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sum.Applied != 1 || sum.Pending != 1 {
		t.Errorf("summary = %+v", sum)
	}

	doc, err := store.Load("bastilha.md")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if doc.Frontmatter[vault.KeyArea] != "História Mundial" {
		t.Errorf("area = %v", doc.Frontmatter[vault.KeyArea])
	}
	// The subarea decision is still pending, so the path below the area
	// stays uncommitted.
	if _, present := doc.Frontmatter[vault.KeySubarea]; present {
		t.Errorf("subarea committed despite pending decision: %v", doc.Frontmatter)
	}

	// The entry survives in the checklist with its approval recorded.
	data, err := store.ReadFile(ledgerFile)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if !strings.Contains(string(data), "Decisão: [x]") {
		t.Errorf("approval lost on rewrite:\n%s", data)
	}

	// Re-running process applies nothing new and keeps the note stable.
	before, err := store.ReadFile("bastilha.md")
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	sum, err = a.Process(ctx)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if sum.Applied != 0 {
		t.Errorf("second run applied = %d, want 0", sum.Applied)
	}
	after, err := store.ReadFile("bastilha.md")
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if string(before) != string(after) {
		t.Error("note changed on an idempotent re-run")
	}
}

func TestProcess_WithoutLedgerIsNoop(t *testing.T) {
	_, _, a := newAnalyzer(t, nil)
	sum, err := a.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sum.Total != 0 || sum.Applied != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestAnalyze_DecisionsSurviveReanalysis(t *testing.T) {
	dir, store, a := newAnalyzer(t, nil)
	testutil.WriteNote(t, dir, "bastilha.md", frenchNote)
	ctx := context.Background()

	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	decideNth(t, store, 1, "x")
	decideNth(t, store, 1, "-")

	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("re-Analyze: %v", err)
	}
	data, err := store.ReadFile(ledgerFile)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Decisão: [x]") || !strings.Contains(text, "Decisão: [-]") {
		t.Errorf("decisions lost after re-analysis:\n%s", text)
	}
}

func TestAnalyze_ChangedNoteResetsDecisions(t *testing.T) {
	dir, store, a := newAnalyzer(t, nil)
	testutil.WriteNote(t, dir, "bastilha.md", frenchNote)
	ctx := context.Background()

	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	decideNth(t, store, 1, "x")

	// Rewriting the note shifts the proposal, so prior decisions no
	// longer apply and reset to pending.
	testutil.WriteNote(t, dir, "bastilha.md", `# Política monetária

O banco central elevou os juros para conter a inflação persistente que
corroia o poder de compra das famílias brasileiras neste ano.
`)
	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("re-Analyze: %v", err)
	}
	data, err := store.ReadFile(ledgerFile)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "Decisão: [x]") {
		t.Errorf("stale approval kept after content change:\n%s", text)
	}
	if !strings.Contains(text, "**Área:** ECONOMIA") {
		t.Errorf("refreshed proposal missing:\n%s", text)
	}
}

func TestAnalyze_WithCacheRecordsRunsAndStaysDeterministic(t *testing.T) {
	db := testutil.TestDB(t)
	dir, store, a := newAnalyzer(t, db)
	testutil.WriteNote(t, dir, "bastilha.md", frenchNote)
	ctx := context.Background()

	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	first, err := store.ReadFile(ledgerFile)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}

	// Second pass serves the proposal from the cache; the checklist body
	// must come out identical (only the timestamp differs).
	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	second, err := store.ReadFile(ledgerFile)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if stripTimestamp(string(first)) != stripTimestamp(string(second)) {
		t.Errorf("cached pass diverged:\nfirst:\n%s\nsecond:\n%s", first, second)
	}

	run, err := db.LastRun("analyze")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if run == nil || run.Total != 1 || run.Proposed != 1 {
		t.Errorf("run record = %+v", run)
	}
}

func TestReport_WritesSummaryFile(t *testing.T) {
	dir, store, a := newAnalyzer(t, nil)
	testutil.WriteNote(t, dir, "pronta.md", "---\narea: ECONOMIA\nrelevancia_cacd: 4\n---\n# Selic\ncorpo\n")
	testutil.WriteNote(t, dir, "vazia.md", "# Sem metadados\ncorpo\n")

	sum, err := a.Report(context.Background())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if sum.Total != 2 {
		t.Errorf("total = %d", sum.Total)
	}

	data, err := store.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	text := string(data)
	for _, want := range []string{"# Relatório de Estudos", "**ECONOMIA:** 1 nota", "Selic"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func stripTimestamp(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, "Gerado em:") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
