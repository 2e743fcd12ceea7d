// Package report aggregates committed front-matter across the vault into
// a study summary: per-area distribution, relevance distribution, and
// coverage gaps. It reads metadata only; neither the classifier nor the
// ledger is involved.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/starford/notamaton/internal/apperr"
	"github.com/starford/notamaton/internal/vault"
)

// LowCoverageThreshold is the note count below which an area counts as a
// coverage gap.
const LowCoverageThreshold = 5

// NoteRef identifies a high-relevance note in the summary.
type NoteRef struct {
	Title     string
	Area      string
	Relevance int
}

// AreaCount pairs an area with its committed-note count.
type AreaCount struct {
	Area  string
	Count int
}

// Stats is the aggregate over all committed metadata in the vault.
type Stats struct {
	TotalNotes    int
	WithMetadata  int
	Skipped       int // notes whose front-matter could not be parsed
	Areas         []AreaCount // count descending
	Relevance     map[int]int // level (1–5) → note count
	LowCoverage   []string    // taxonomy areas below the threshold
	HighRelevance []NoteRef   // relevance ≥ 4, descending, capped at 10
}

// CoveragePercent returns committed-metadata coverage as a percentage.
func (s *Stats) CoveragePercent() float64 {
	if s.TotalNotes == 0 {
		return 0
	}
	return float64(s.WithMetadata) / float64(s.TotalNotes) * 100
}

// Collect walks the vault and aggregates committed front-matter.
// taxonomyAreas supplies the full area list so areas without any note
// still surface as coverage gaps. Per-note parse failures are skipped.
func Collect(store vault.Store, taxonomyAreas []string, logger *slog.Logger) (*Stats, error) {
	stats := &Stats{Relevance: make(map[int]int)}
	areaCounts := make(map[string]int)
	var high []NoteRef

	err := store.Walk(func(meta vault.NoteMeta) error {
		stats.TotalNotes++

		doc, err := store.Load(meta.Path)
		if err != nil {
			var perr *apperr.ParseError
			if errors.As(err, &perr) {
				stats.Skipped++
				logger.Warn("report: skipping note", slog.String("path", meta.Path), slog.String("error", err.Error()))
				return nil
			}
			return err
		}

		fm := doc.Frontmatter
		area, _ := fm[vault.KeyArea].(string)
		if area != "" {
			stats.WithMetadata++
			areaCounts[area]++
		}

		if rel, ok := asInt(fm[vault.KeyRelevance]); ok && rel >= 1 {
			stats.Relevance[rel]++
			if rel >= 4 {
				high = append(high, NoteRef{Title: doc.Title, Area: area, Relevance: rel})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("report: collect: %w", err)
	}

	for area, count := range areaCounts {
		stats.Areas = append(stats.Areas, AreaCount{Area: area, Count: count})
	}
	sort.Slice(stats.Areas, func(i, j int) bool {
		if stats.Areas[i].Count != stats.Areas[j].Count {
			return stats.Areas[i].Count > stats.Areas[j].Count
		}
		return stats.Areas[i].Area < stats.Areas[j].Area
	})

	for _, area := range taxonomyAreas {
		if areaCounts[area] < LowCoverageThreshold {
			stats.LowCoverage = append(stats.LowCoverage, area)
		}
	}

	sort.SliceStable(high, func(i, j int) bool { return high[i].Relevance > high[j].Relevance })
	if len(high) > 10 {
		high = high[:10]
	}
	stats.HighRelevance = high

	return stats, nil
}

// asInt coerces the YAML decodings an integer field can arrive as.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
