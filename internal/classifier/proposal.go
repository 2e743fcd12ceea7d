package classifier

import (
	"strconv"
	"strings"

	"github.com/starford/notamaton/internal/checksum"
)

// Proposal is a not-yet-committed metadata suggestion for one document.
// Produced fresh on each analysis pass and never mutated in place.
type Proposal struct {
	Path        string   `json:"path"`
	Area        string   `json:"area"`
	Subarea     string   `json:"subarea,omitempty"`
	Topic       string   `json:"topico,omitempty"`
	Confidence  float64  `json:"confidence"`
	Tags        []string `json:"tags,omitempty"`
	Relevance   int      `json:"relevancia_cacd"`
	Connections []string `json:"conexoes,omitempty"`
}

// Hash fingerprints the proposal content. Two analysis passes over
// unchanged text and taxonomy produce identical hashes, which is how the
// ledger detects that prior human decisions still apply.
func (p Proposal) Hash() string {
	return checksum.Fields(
		p.Path,
		p.Area,
		p.Subarea,
		p.Topic,
		strconv.FormatFloat(p.Confidence, 'f', 4, 64),
		strings.Join(p.Tags, ","),
		strconv.Itoa(p.Relevance),
		strings.Join(p.Connections, ","),
	)
}
