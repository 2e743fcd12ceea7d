// Package analyzer sequences the run modes over the vault: analyze and
// feedback produce the review checklist, process commits approved fields,
// report summarizes committed metadata.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/notamaton/internal/apperr"
	"github.com/starford/notamaton/internal/classifier"
	"github.com/starford/notamaton/internal/index"
	"github.com/starford/notamaton/internal/ledger"
	"github.com/starford/notamaton/internal/report"
	"github.com/starford/notamaton/internal/taxonomy"
	"github.com/starford/notamaton/internal/vault"
)

// Summary is the run-end accounting surfaced to logs and the run cache.
type Summary struct {
	Total    int // notes discovered
	Proposed int // fresh proposals produced
	Skipped  int // complete metadata, below threshold, or no signal
	Failed   int // per-note parse/write failures (run continued)
	Applied  int // notes mutated by process mode
	Pending  int // ledger entries awaiting a decision after the run
}

// Analyzer wires the document store, taxonomy, classifier, optional
// cache, and ledger file names into the run modes.
type Analyzer struct {
	store      vault.Store
	idx        *taxonomy.Index
	cls        *classifier.Classifier
	cache      index.Cache // nil disables caching
	logger     *slog.Logger
	ledgerFile string
	reportFile string
}

// New builds an Analyzer. cache may be nil.
func New(store vault.Store, idx *taxonomy.Index, cls *classifier.Classifier, cache index.Cache, logger *slog.Logger, ledgerFile, reportFile string) *Analyzer {
	return &Analyzer{
		store:      store,
		idx:        idx,
		cls:        cls,
		cache:      cache,
		logger:     logger,
		ledgerFile: ledgerFile,
		reportFile: reportFile,
	}
}

// Analyze classifies every note, reconciles the existing ledger against
// the fresh proposals, and rewrites the checklist. No note is mutated.
func (a *Analyzer) Analyze(ctx context.Context) (Summary, error) {
	started := time.Now()
	var sum Summary
	var proposals []classifier.Proposal
	seen := make(map[string]struct{})

	err := a.store.Walk(func(meta vault.NoteMeta) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum.Total++
		seen[meta.Path] = struct{}{}

		p, outcome, err := a.classifyNote(meta)
		switch {
		case err != nil:
			sum.Failed++
			a.logger.Warn("analyze: skipping note", slog.String("path", meta.Path), slog.String("error", err.Error()))
		case p != nil:
			sum.Proposed++
			proposals = append(proposals, *p)
			a.logger.Debug("analyze: proposal", slog.String("path", meta.Path),
				slog.String("area", p.Area), slog.Float64("confidence", p.Confidence))
		default:
			sum.Skipped++
			a.logger.Debug("analyze: no proposal", slog.String("path", meta.Path), slog.String("reason", outcome))
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	if a.cache != nil {
		if err := a.cache.Prune(seen); err != nil {
			a.logger.Warn("analyze: cache prune failed", slog.String("error", err.Error()))
		}
	}

	existing, hadLedger, err := a.readLedger()
	if err != nil {
		return sum, err
	}

	entries := ledger.Reconcile(existing, proposals)
	for _, e := range entries {
		if !e.Decided() {
			sum.Pending++
		}
	}

	if len(entries) > 0 || hadLedger {
		if err := a.store.WriteFile(a.ledgerFile, ledger.Render(entries, time.Now())); err != nil {
			return sum, fmt.Errorf("analyze: write ledger: %w", err)
		}
	}

	a.recordRun("analyze", started, sum)
	a.logSummary("analyze", sum)
	return sum, nil
}

// classifyNote loads and classifies one note, consulting the cache first.
// outcome explains a nil proposal for debug logging.
func (a *Analyzer) classifyNote(meta vault.NoteMeta) (*classifier.Proposal, string, error) {
	doc, err := a.store.Load(meta.Path)
	if err != nil {
		return nil, "", err
	}

	if vault.HasCompleteMetadata(doc.Frontmatter) {
		return nil, "metadata complete", nil
	}

	taxSum := a.idx.Checksum()
	if a.cache != nil {
		js, hit, err := a.cache.Get(meta.Path, meta.Checksum, taxSum)
		if err != nil {
			a.logger.Warn("analyze: cache read failed", slog.String("path", meta.Path), slog.String("error", err.Error()))
		} else if hit {
			if js == "" {
				return nil, "below threshold (cached)", nil
			}
			var p classifier.Proposal
			if err := json.Unmarshal([]byte(js), &p); err == nil {
				return &p, "", nil
			}
			// Corrupt cache row: fall through and recompute.
		}
	}

	p := a.cls.Classify(doc)

	if a.cache != nil {
		js := ""
		if p != nil {
			if raw, err := json.Marshal(p); err == nil {
				js = string(raw)
			}
		}
		if err := a.cache.Put(meta.Path, meta.Checksum, taxSum, js); err != nil {
			a.logger.Warn("analyze: cache write failed", slog.String("path", meta.Path), slog.String("error", err.Error()))
		}
	}

	if p == nil {
		return nil, "below threshold", nil
	}
	return p, "", nil
}

// Process reconciles the edited ledger and commits approved fields.
// Fully decided entries are consumed; entries with pending fields stay in
// the checklist. With no ledger present this is a warning no-op.
func (a *Analyzer) Process(ctx context.Context) (Summary, error) {
	started := time.Now()
	var sum Summary

	data, err := a.store.ReadFile(a.ledgerFile)
	if errors.Is(err, apperr.ErrNotFound) {
		a.logger.Warn("process: no feedback ledger, nothing to apply", slog.String("ledger", a.ledgerFile))
		return sum, nil
	}
	if err != nil {
		return sum, err
	}

	entries, warnings := ledger.Parse(data)
	for _, w := range warnings {
		a.logger.Warn("process: malformed ledger entry", slog.Int("line", w.Line), slog.String("text", w.Text))
	}

	var remaining []ledger.Entry
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Total++

		if e.HasApproval() {
			applied, err := a.applyEntry(e)
			if err != nil {
				sum.Failed++
				a.logger.Warn("process: apply failed", slog.String("path", e.Path), slog.String("error", err.Error()))
				remaining = append(remaining, e)
				continue
			}
			if applied {
				sum.Applied++
				a.logger.Info("process: metadata applied", slog.String("path", e.Path))
			}
		}

		if !e.Decided() {
			sum.Pending++
			remaining = append(remaining, e)
		}
	}

	if err := a.rewriteLedger(remaining); err != nil {
		return sum, err
	}

	a.recordRun("process", started, sum)
	a.logSummary("process", sum)
	return sum, nil
}

// applyEntry writes the entry's approved fields into the note, skipping
// the write entirely when the committed values already match, so repeated
// process runs leave fully applied documents untouched.
func (a *Analyzer) applyEntry(e ledger.Entry) (bool, error) {
	fields := e.ApprovedFields()
	if len(fields) == 0 {
		return false, nil
	}

	doc, err := a.store.Load(e.Path)
	if err != nil {
		return false, err
	}
	for key, val := range fields {
		if committedEqual(doc.Frontmatter[key], val) {
			delete(fields, key)
		}
	}
	if len(fields) == 0 {
		return false, nil
	}

	if err := a.store.Apply(e.Path, fields); err != nil {
		return false, err
	}
	return true, nil
}

// rewriteLedger persists the leftover entries, or archives the checklist
// when everything was consumed.
func (a *Analyzer) rewriteLedger(remaining []ledger.Entry) error {
	if len(remaining) > 0 {
		if err := a.store.WriteFile(a.ledgerFile, ledger.Render(remaining, time.Now())); err != nil {
			return fmt.Errorf("process: rewrite ledger: %w", err)
		}
		return nil
	}
	archived := strings.TrimSuffix(a.ledgerFile, ".md") + ".processed.md"
	if err := a.store.Rename(a.ledgerFile, archived); err != nil {
		return fmt.Errorf("process: archive ledger: %w", err)
	}
	a.logger.Info("process: ledger fully consumed", slog.String("archived", archived))
	return nil
}

// Report aggregates committed metadata and writes the study summary.
func (a *Analyzer) Report(ctx context.Context) (Summary, error) {
	started := time.Now()
	var sum Summary

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	stats, err := report.Collect(a.store, a.idx.Areas(), a.logger)
	if err != nil {
		return sum, err
	}
	sum.Total = stats.TotalNotes
	sum.Skipped = stats.Skipped

	data, err := report.Render(stats, time.Now())
	if err != nil {
		return sum, err
	}
	if err := a.store.WriteFile(a.reportFile, data); err != nil {
		return sum, fmt.Errorf("report: write: %w", err)
	}

	a.recordRun("report", started, sum)
	a.logger.Info("report written", slog.String("path", a.reportFile),
		slog.Int("notes", stats.TotalNotes), slog.Int("with_metadata", stats.WithMetadata))
	return sum, nil
}

// PendingEntries exposes the current ledger contents (for the MCP server).
func (a *Analyzer) PendingEntries() ([]ledger.Entry, error) {
	entries, hadLedger, err := a.readLedger()
	if err != nil {
		return nil, err
	}
	if !hadLedger {
		return nil, nil
	}
	var pending []ledger.Entry
	for _, e := range entries {
		if !e.Decided() {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// ClassifyPath classifies a single note on demand (for the MCP server).
func (a *Analyzer) ClassifyPath(path string) (*classifier.Proposal, error) {
	doc, err := a.store.Load(path)
	if err != nil {
		return nil, err
	}
	return a.cls.Classify(doc), nil
}

// CollectStats aggregates committed metadata without writing the report
// file (for the MCP server).
func (a *Analyzer) CollectStats() (*report.Stats, error) {
	return report.Collect(a.store, a.idx.Areas(), a.logger)
}

func (a *Analyzer) readLedger() ([]ledger.Entry, bool, error) {
	data, err := a.store.ReadFile(a.ledgerFile)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	entries, warnings := ledger.Parse(data)
	for _, w := range warnings {
		a.logger.Warn("ledger: malformed entry", slog.Int("line", w.Line), slog.String("text", w.Text))
	}
	return entries, true, nil
}

func (a *Analyzer) recordRun(mode string, started time.Time, sum Summary) {
	if a.cache == nil {
		return
	}
	err := a.cache.RecordRun(index.RunRecord{
		Mode:      mode,
		StartedAt: started,
		Total:     sum.Total,
		Proposed:  sum.Proposed,
		Skipped:   sum.Skipped,
		Failed:    sum.Failed,
		Applied:   sum.Applied,
	})
	if err != nil {
		a.logger.Warn("run record failed", slog.String("error", err.Error()))
	}
}

func (a *Analyzer) logSummary(mode string, sum Summary) {
	a.logger.Info("run complete",
		slog.String("mode", mode),
		slog.Int("total", sum.Total),
		slog.Int("proposed", sum.Proposed),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
		slog.Int("applied", sum.Applied),
		slog.Int("pending", sum.Pending))
}

// committedEqual compares an already-committed front-matter value against
// a value the analyzer is about to write, across the types yaml decodes to.
func committedEqual(committed, proposed interface{}) bool {
	switch pv := proposed.(type) {
	case string:
		cs, ok := committed.(string)
		return ok && cs == pv
	case int:
		switch cv := committed.(type) {
		case int:
			return cv == pv
		case int64:
			return int(cv) == pv
		case float64:
			return int(cv) == pv
		}
		return false
	case []string:
		cl, ok := committed.([]interface{})
		if !ok || len(cl) != len(pv) {
			return false
		}
		for i := range pv {
			cs, ok := cl[i].(string)
			if !ok || cs != pv[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
