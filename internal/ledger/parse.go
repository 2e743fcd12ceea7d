package ledger

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/notamaton/internal/apperr"
	"github.com/starford/notamaton/internal/classifier"
)

var (
	fileRe     = regexp.MustCompile("^\\*\\*" + labelFile + ":\\*\\* `(.+)`$")
	confRe     = regexp.MustCompile(`^\*\*` + labelConfidence + `:\*\* ([0-9.]+)$`)
	fieldRe    = regexp.MustCompile(`^- \*\*(.+?):\*\* (.+)$`)
	decisionRe = regexp.MustCompile(`^- Decisão: \[(.?)\]$`)
)

// Parse reads a (possibly hand-edited) checklist document back into
// entries. Lines it cannot interpret are reported as warnings and the
// affected field is left pending; parsing never aborts the whole document.
func Parse(data []byte) ([]Entry, []apperr.MalformedEntryError) {
	var (
		entries  []Entry
		warnings []apperr.MalformedEntryError
		cur      *Entry
		curField Field
		hasField bool
	)

	flush := func(line int) {
		if cur == nil {
			return
		}
		if cur.Path == "" {
			warnings = append(warnings, apperr.MalformedEntryError{Line: line, Text: "entry without file path"})
		} else {
			entries = append(entries, *cur)
		}
		cur = nil
		hasField = false
	}

	lines := strings.Split(string(data), "\n")
	for i, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		lineNo := i + 1

		switch {
		case strings.HasPrefix(line, "## Nota:"):
			flush(lineNo)
			cur = &Entry{Decisions: make(map[Field]Decision)}

		case cur == nil:
			// Header or trailing prose outside any entry.

		case strings.HasPrefix(trimmed, hashPrefix):
			cur.Hash = strings.TrimSuffix(strings.TrimPrefix(trimmed, hashPrefix), " -->")

		case fileRe.MatchString(trimmed):
			cur.Path = fileRe.FindStringSubmatch(trimmed)[1]
			cur.Proposal.Path = cur.Path

		case confRe.MatchString(trimmed):
			if v, err := strconv.ParseFloat(confRe.FindStringSubmatch(trimmed)[1], 64); err == nil {
				cur.Proposal.Confidence = v
			}

		case strings.HasPrefix(line, "- **"):
			m := fieldRe.FindStringSubmatch(trimmed)
			if m == nil {
				warnings = append(warnings, apperr.MalformedEntryError{Line: lineNo, Text: trimmed})
				hasField = false
				continue
			}
			f, ok := applyFieldValue(&cur.Proposal, m[1], m[2])
			if !ok {
				warnings = append(warnings, apperr.MalformedEntryError{Line: lineNo, Text: trimmed})
				hasField = false
				continue
			}
			curField, hasField = f, f != ""
			if hasField {
				// Default until a decision line says otherwise.
				cur.Decisions[curField] = Pending
			}

		case strings.HasPrefix(trimmed, "- Decisão:"):
			m := decisionRe.FindStringSubmatch(trimmed)
			if m == nil || len(m[1]) != 1 || !hasField {
				warnings = append(warnings, apperr.MalformedEntryError{Line: lineNo, Text: trimmed})
				continue
			}
			d, ok := decisionFromMarker(m[1][0])
			if !ok {
				warnings = append(warnings, apperr.MalformedEntryError{Line: lineNo, Text: trimmed})
				d = Pending
			}
			cur.Decisions[curField] = d
			hasField = false
		}
	}
	flush(len(lines))

	return entries, warnings
}

// applyFieldValue writes the checklist value back onto the proposal and
// returns which decision field (if any) the label corresponds to. The
// topic line carries no decision of its own, hence the empty field.
func applyFieldValue(p *classifier.Proposal, label, value string) (Field, bool) {
	switch label {
	case labelArea:
		p.Area = value
		return FieldArea, true
	case labelSubarea:
		p.Subarea = value
		return FieldSubarea, true
	case labelTopic:
		p.Topic = value
		return "", true
	case labelTags:
		p.Tags = splitList(value)
		return FieldTags, true
	case labelRelevance:
		n, err := strconv.Atoi(strings.TrimSuffix(value, "/5"))
		if err != nil {
			return "", false
		}
		p.Relevance = n
		return FieldRelevance, true
	case labelConnections:
		p.Connections = splitList(value)
		return FieldConnections, true
	default:
		return "", false
	}
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
