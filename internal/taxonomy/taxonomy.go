// Package taxonomy loads the hierarchical subject taxonomy
// (area → subarea → topic → keywords) and builds the keyword lookup
// used by the classifier.
package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/notamaton/internal/apperr"
	"github.com/starford/notamaton/internal/checksum"
)

// Node is one classification target. Area-level and subarea-level nodes
// have empty Subarea/Topic fields; topic nodes carry the full path.
// Nodes are immutable after load.
type Node struct {
	Area    string
	Subarea string
	Topic   string
	// Keywords are the declared (or name-derived) keyword phrases,
	// lowercased but with accents intact.
	Keywords []string
}

// Path renders the node as a human-readable category path.
func (n Node) Path() string {
	parts := []string{n.Area}
	if n.Subarea != "" {
		parts = append(parts, n.Subarea)
	}
	if n.Topic != "" {
		parts = append(parts, n.Topic)
	}
	return strings.Join(parts, " / ")
}

// Ref points a matched keyword token back at a node, keeping the
// human-readable keyword form for tag derivation.
type Ref struct {
	Node    int    // index into Index nodes, taxonomy declaration order
	Keyword string // folded (accent-preserving) form of the matched word
}

// Index is the read-only keyword→node lookup built once per run.
type Index struct {
	nodes    []Node
	buckets  map[string][]Ref
	areas    []string
	checksum string
}

// Load reads the taxonomy document and builds the keyword index.
// Any absence, YAML failure, or shape violation is fatal.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperr.TaxonomyError{Path: path, Reason: "read", Err: err}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &apperr.TaxonomyError{Path: path, Reason: "malformed YAML", Err: err}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, &apperr.TaxonomyError{Path: path, Reason: "expected a mapping of areas at the top level"}
	}

	ix := &Index{
		buckets:  make(map[string][]Ref),
		checksum: checksum.Sum(data),
	}
	if err := ix.build(doc.Content[0]); err != nil {
		return nil, &apperr.TaxonomyError{Path: path, Reason: "invalid shape", Err: err}
	}
	if len(ix.nodes) == 0 {
		return nil, &apperr.TaxonomyError{Path: path, Reason: "taxonomy is empty"}
	}
	return ix, nil
}

// build walks the area→subarea→topic mapping. Two topic layouts are
// accepted: a sequence of topic names (keywords derived from the name) and
// a mapping of topic name → explicit keyword list.
func (ix *Index) build(root *yaml.Node) error {
	for i := 0; i+1 < len(root.Content); i += 2 {
		area := root.Content[i].Value
		areaVal := root.Content[i+1]
		ix.areas = append(ix.areas, area)

		// Area names contribute their own words as keywords.
		ix.addNode(Node{Area: area, Keywords: []string{area}})

		if areaVal.Kind == yaml.ScalarNode && areaVal.Value == "" {
			continue // area declared without subareas
		}
		if areaVal.Kind != yaml.MappingNode {
			return fmt.Errorf("area %q: expected a mapping of subareas", area)
		}

		for j := 0; j+1 < len(areaVal.Content); j += 2 {
			subarea := areaVal.Content[j].Value
			subVal := areaVal.Content[j+1]

			ix.addNode(Node{Area: area, Subarea: subarea, Keywords: []string{subarea}})

			switch subVal.Kind {
			case yaml.ScalarNode:
				if subVal.Value != "" {
					return fmt.Errorf("area %q, subarea %q: expected topics, got scalar", area, subarea)
				}
			case yaml.SequenceNode:
				for _, t := range subVal.Content {
					if t.Kind != yaml.ScalarNode {
						return fmt.Errorf("area %q, subarea %q: topic entries must be strings", area, subarea)
					}
					ix.addNode(Node{Area: area, Subarea: subarea, Topic: t.Value, Keywords: []string{t.Value}})
				}
			case yaml.MappingNode:
				for k := 0; k+1 < len(subVal.Content); k += 2 {
					topic := subVal.Content[k].Value
					kwVal := subVal.Content[k+1]
					kws, err := keywordList(kwVal)
					if err != nil {
						return fmt.Errorf("area %q, subarea %q, topic %q: %w", area, subarea, topic, err)
					}
					// The topic name itself always counts as a keyword phrase.
					ix.addNode(Node{Area: area, Subarea: subarea, Topic: topic, Keywords: append([]string{topic}, kws...)})
				}
			default:
				return fmt.Errorf("area %q, subarea %q: unsupported topic layout", area, subarea)
			}
		}
	}
	return nil
}

func keywordList(n *yaml.Node) ([]string, error) {
	if n.Kind == yaml.ScalarNode && n.Value == "" {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a keyword list")
	}
	out := make([]string, 0, len(n.Content))
	for _, kw := range n.Content {
		if kw.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("keywords must be strings")
		}
		out = append(out, kw.Value)
	}
	return out, nil
}

// addNode appends the node and indexes every word of every keyword phrase.
// A word may map to several nodes (ambiguous terms); all are retained in
// declaration order, which later serves as the deterministic tie-break.
func (ix *Index) addNode(n Node) {
	folded := make([]string, 0, len(n.Keywords))
	pos := len(ix.nodes)
	seen := make(map[string]struct{})

	for _, phrase := range n.Keywords {
		display := strings.Fields(Fold(phrase))
		normed := strings.Fields(Normalize(phrase))
		if len(display) != len(normed) {
			// Accent stripping never changes word count; guard anyway.
			display = normed
		}
		for w := range normed {
			if len([]rune(normed[w])) < minTokenLen {
				continue
			}
			// A node indexes each word once, however many of its
			// keyword phrases contain it.
			if _, dup := seen[normed[w]]; dup {
				continue
			}
			seen[normed[w]] = struct{}{}
			ix.buckets[normed[w]] = append(ix.buckets[normed[w]], Ref{Node: pos, Keyword: display[w]})
		}
		folded = append(folded, Fold(phrase))
	}

	n.Keywords = folded
	ix.nodes = append(ix.nodes, n)
}

// Lookup returns the refs for a normalized token, in declaration order.
func (ix *Index) Lookup(token string) []Ref { return ix.buckets[token] }

// Node returns the node at declaration index i.
func (ix *Index) Node(i int) Node { return ix.nodes[i] }

// Len returns the number of classification targets.
func (ix *Index) Len() int { return len(ix.nodes) }

// Areas returns the declared area names in order.
func (ix *Index) Areas() []string { return ix.areas }

// Checksum identifies the loaded taxonomy content; cache entries computed
// against a different taxonomy are invalidated by comparing this value.
func (ix *Index) Checksum() string { return ix.checksum }
