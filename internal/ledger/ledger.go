// Package ledger serializes pending metadata proposals into a single
// human-editable checklist document, parses the edited checklist back into
// per-field decisions, and reconciles fresh analysis results against prior
// decisions so the checklist survives re-runs without data loss.
package ledger

import (
	"github.com/starford/notamaton/internal/classifier"
	"github.com/starford/notamaton/internal/vault"
)

// Decision is the review state of one proposal field.
type Decision int

const (
	Pending Decision = iota
	Approved
	Rejected
)

// Marker returns the checkbox character for the decision.
func (d Decision) Marker() byte {
	switch d {
	case Approved:
		return 'x'
	case Rejected:
		return '-'
	default:
		return ' '
	}
}

func decisionFromMarker(m byte) (Decision, bool) {
	switch m {
	case ' ':
		return Pending, true
	case 'x', 'X':
		return Approved, true
	case '-':
		return Rejected, true
	default:
		return Pending, false
	}
}

// Field names a reviewable proposal field. The topic has no decision of
// its own: it inherits the subarea decision (or the area decision when no
// subarea line exists).
type Field string

const (
	FieldArea        Field = "area"
	FieldSubarea     Field = "subarea"
	FieldTags        Field = "tags"
	FieldRelevance   Field = "relevance"
	FieldConnections Field = "connections"
)

// Entry is one document's proposal plus the human decisions on it.
type Entry struct {
	Path     string
	Proposal classifier.Proposal
	// Decisions holds one state per rendered field. Fields the proposal
	// left empty have no decision.
	Decisions map[Field]Decision
	// Hash is the proposal fingerprint recorded in the checklist; a
	// mismatch against a freshly computed proposal resets the entry.
	Hash string
}

// NewEntry wraps a fresh proposal with every field pending.
func NewEntry(p classifier.Proposal) Entry {
	e := Entry{
		Path:      p.Path,
		Proposal:  p,
		Decisions: make(map[Field]Decision),
		Hash:      p.Hash(),
	}
	if p.Area != "" {
		e.Decisions[FieldArea] = Pending
	}
	if p.Subarea != "" {
		e.Decisions[FieldSubarea] = Pending
	}
	if len(p.Tags) > 0 {
		e.Decisions[FieldTags] = Pending
	}
	if p.Relevance > 0 {
		e.Decisions[FieldRelevance] = Pending
	}
	if len(p.Connections) > 0 {
		e.Decisions[FieldConnections] = Pending
	}
	return e
}

// Decided reports whether every field of the entry reached a terminal state.
func (e Entry) Decided() bool {
	for _, d := range e.Decisions {
		if d == Pending {
			return false
		}
	}
	return true
}

// HasApproval reports whether at least one field was approved.
func (e Entry) HasApproval() bool {
	for _, d := range e.Decisions {
		if d == Approved {
			return true
		}
	}
	return false
}

// ApprovedFields maps the approved decisions onto front-matter keys.
// Rejected and pending fields are absent, so prior committed values stay
// untouched. The topic follows the subarea decision when one exists and
// the area decision otherwise.
func (e Entry) ApprovedFields() map[string]interface{} {
	out := make(map[string]interface{})
	p := e.Proposal

	areaApproved := e.Decisions[FieldArea] == Approved
	if areaApproved && p.Area != "" {
		out[vault.KeyArea] = p.Area
	}

	subDec, hasSub := e.Decisions[FieldSubarea]
	pathApproved := areaApproved
	if hasSub {
		pathApproved = subDec == Approved
	}
	if pathApproved {
		if p.Subarea != "" {
			out[vault.KeySubarea] = p.Subarea
		}
		if p.Topic != "" {
			out[vault.KeyTopic] = p.Topic
		}
	}

	if e.Decisions[FieldTags] == Approved && len(p.Tags) > 0 {
		out[vault.KeyTags] = p.Tags
	}
	if e.Decisions[FieldRelevance] == Approved && p.Relevance > 0 {
		out[vault.KeyRelevance] = p.Relevance
	}
	if e.Decisions[FieldConnections] == Approved && len(p.Connections) > 0 {
		out[vault.KeyConnections] = p.Connections
	}
	return out
}

// Reconcile merges fresh proposals with prior entries: an unchanged
// proposal keeps its decisions, a materially changed one resets to pending,
// and proposals seen for the first time get new entries. Entries whose
// documents no longer yield a proposal are dropped. Output order follows
// the fresh proposals, which follow vault walk order.
func Reconcile(existing []Entry, fresh []classifier.Proposal) []Entry {
	byPath := make(map[string]Entry, len(existing))
	for _, e := range existing {
		byPath[e.Path] = e
	}

	out := make([]Entry, 0, len(fresh))
	for _, p := range fresh {
		if prev, ok := byPath[p.Path]; ok && prev.Hash == p.Hash() {
			// Same proposal: human decisions survive the re-run.
			prev.Proposal = p
			out = append(out, prev)
			continue
		}
		out = append(out, NewEntry(p))
	}
	return out
}
