// Package classifier scores a note's text against the taxonomy keyword
// index and derives a metadata proposal: category path, tags, relevance,
// and related-topic suggestions. Classification is a pure function of its
// inputs so repeated runs over unchanged text yield identical proposals.
package classifier

import (
	"sort"

	"github.com/starford/notamaton/internal/taxonomy"
	"github.com/starford/notamaton/internal/vault"
)

// Config carries the classification policy knobs.
type Config struct {
	// MinConfidence is the threshold below which no proposal is emitted.
	MinConfidence float64
	// TitleWeight multiplies keyword hits in the title; the title signal
	// is stronger and sparser than body matches.
	TitleWeight int
	// MaxTags caps the tags per proposal.
	MaxTags int
	// MaxConnections caps the related-topic suggestions per proposal.
	MaxConnections int
	// MinContentLength skips notes whose body is shorter (too little
	// signal to classify).
	MinContentLength int
	// AreaTags supplies the canned tags per area.
	AreaTags map[string][]string
	// Relevance is the 1–5 scoring policy.
	Relevance RelevancePolicy
}

// DefaultConfig returns the stock classification policy.
func DefaultConfig() Config {
	return Config{
		MinConfidence:    0.3,
		TitleWeight:      3,
		MaxTags:          5,
		MaxConnections:   3,
		MinContentLength: 50,
		AreaTags:         DefaultAreaTags,
		Relevance:        DefaultRelevancePolicy(),
	}
}

// Classifier matches documents against a keyword index. Read-only after
// construction; safe to reuse across every note of a run.
type Classifier struct {
	idx *taxonomy.Index
	cfg Config
}

// New creates a Classifier over the given index and policy.
func New(idx *taxonomy.Index, cfg Config) *Classifier {
	return &Classifier{idx: idx, cfg: cfg}
}

// Classify scores the document and derives a proposal, or nil when the
// note has no keyword signal above the confidence threshold. Pure: no
// side effects, no hidden state.
func (c *Classifier) Classify(doc *vault.Document) *Proposal {
	if len(doc.Body) < c.cfg.MinContentLength {
		return nil
	}

	titleTokens := taxonomy.Tokens(doc.Title)
	bodyTokens := taxonomy.Tokens(doc.Body)
	totalWords := len(titleTokens) + len(bodyTokens)
	if totalWords == 0 {
		return nil
	}

	scores := make(map[int]int)
	// matched keeps, per node, the human-readable matched keywords in
	// first-match order (title before body, document order within each).
	matched := make(map[int][]string)
	matchedSeen := make(map[int]map[string]struct{})

	accumulate := func(tokens []string, weight int) {
		for _, tok := range tokens {
			for _, ref := range c.idx.Lookup(tok) {
				scores[ref.Node] += weight
				if matchedSeen[ref.Node] == nil {
					matchedSeen[ref.Node] = make(map[string]struct{})
				}
				if _, dup := matchedSeen[ref.Node][ref.Keyword]; !dup {
					matchedSeen[ref.Node][ref.Keyword] = struct{}{}
					matched[ref.Node] = append(matched[ref.Node], ref.Keyword)
				}
			}
		}
	}
	accumulate(titleTokens, c.cfg.TitleWeight)
	accumulate(bodyTokens, 1)

	if len(scores) == 0 {
		return nil
	}

	// Highest score wins; ties go to the earlier-declared node so
	// classification is deterministic regardless of map iteration order.
	best, bestScore := -1, 0
	for i := 0; i < c.idx.Len(); i++ {
		if s, ok := scores[i]; ok && s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return nil
	}

	confidence := c.confidence(bestScore, totalWords)
	if confidence < c.cfg.MinConfidence {
		return nil
	}

	node := c.idx.Node(best)
	return &Proposal{
		Path:        doc.Path,
		Area:        node.Area,
		Subarea:     node.Subarea,
		Topic:       node.Topic,
		Confidence:  confidence,
		Tags:        c.deriveTags(node, matched[best]),
		Relevance:   c.cfg.Relevance.Score(node.Area, confidence, len(doc.Body)),
		Connections: c.deriveConnections(best, node, scores),
	}
}

// confidence bounds the best score by match density: more matches raise
// it, longer unmatched text dilutes it, clamped to [0,1].
func (c *Classifier) confidence(bestScore, totalWords int) float64 {
	denom := float64(totalWords) * 0.1
	if denom < 1 {
		denom = 1
	}
	conf := float64(bestScore) / denom
	if conf > 1 {
		return 1
	}
	return conf
}

// deriveTags unions the matched keywords (most specific, kept first) with
// the winning area's canned tags, deduplicated and capped at MaxTags.
func (c *Classifier) deriveTags(node taxonomy.Node, matchedKeywords []string) []string {
	seen := make(map[string]struct{})
	var tags []string
	add := func(tag string) {
		if tag == "" || len(tags) >= c.cfg.MaxTags {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, kw := range matchedKeywords {
		add(kw)
	}
	for _, tag := range c.cfg.AreaTags[node.Area] {
		add(tag)
	}
	return tags
}

// deriveConnections surfaces sibling topics (same area, and same subarea
// when the winner has one) whose keywords also matched, ordered by score
// descending with declaration order as the tie-break.
func (c *Classifier) deriveConnections(best int, node taxonomy.Node, scores map[int]int) []string {
	type hit struct {
		idx   int
		score int
	}
	var hits []hit
	for i, s := range scores {
		if i == best || s <= 0 {
			continue
		}
		other := c.idx.Node(i)
		if other.Topic == "" || other.Area != node.Area {
			continue
		}
		if node.Subarea != "" && other.Subarea != node.Subarea {
			continue
		}
		hits = append(hits, hit{idx: i, score: s})
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return hits[a].idx < hits[b].idx
	})

	var out []string
	for _, h := range hits {
		if len(out) >= c.cfg.MaxConnections {
			break
		}
		out = append(out, c.idx.Node(h.idx).Topic)
	}
	return out
}
