package ledger

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Checklist field labels. Parsing is keyed on these exact strings, so
// Render and Parse must stay in lockstep.
const (
	labelFile        = "Arquivo"
	labelConfidence  = "Confiança"
	labelArea        = "Área"
	labelSubarea     = "Subárea"
	labelTopic       = "Tópico"
	labelTags        = "Tags"
	labelRelevance   = "Relevância"
	labelConnections = "Conexões"
)

const hashPrefix = "<!-- proposta: "

// Render serializes the entries into the checklist document, grouped per
// source document, each field on a checklist line whose marker reflects
// the current decision state.
func Render(entries []Entry, generatedAt time.Time) []byte {
	var b bytes.Buffer

	b.WriteString("# Revisão de Metadados\n\n")
	fmt.Fprintf(&b, "Gerado em: %s\n\n", generatedAt.Format("2006-01-02 15:04"))
	b.WriteString("**Instruções:** marque `[x]` para aprovar, `[-]` para rejeitar; `[ ]` permanece pendente.\n\n")

	for _, e := range entries {
		fmt.Fprintf(&b, "## Nota: %s\n", noteName(e.Path))
		fmt.Fprintf(&b, "**%s:** `%s`\n", labelFile, e.Path)
		fmt.Fprintf(&b, "**%s:** %.2f\n", labelConfidence, e.Proposal.Confidence)
		fmt.Fprintf(&b, "%s%s -->\n\n", hashPrefix, e.Hash)

		p := e.Proposal
		if p.Area != "" {
			writeField(&b, labelArea, p.Area, e.Decisions[FieldArea])
		}
		if p.Subarea != "" {
			writeField(&b, labelSubarea, p.Subarea, e.Decisions[FieldSubarea])
		}
		if p.Topic != "" {
			// Informational: the topic inherits the path decision.
			fmt.Fprintf(&b, "- **%s:** %s\n", labelTopic, p.Topic)
		}
		if len(p.Tags) > 0 {
			writeField(&b, labelTags, strings.Join(p.Tags, ", "), e.Decisions[FieldTags])
		}
		if p.Relevance > 0 {
			writeField(&b, labelRelevance, fmt.Sprintf("%d/5", p.Relevance), e.Decisions[FieldRelevance])
		}
		if len(p.Connections) > 0 {
			writeField(&b, labelConnections, strings.Join(p.Connections, ", "), e.Decisions[FieldConnections])
		}

		b.WriteString("\n---\n\n")
	}

	return b.Bytes()
}

func writeField(b *bytes.Buffer, label, value string, d Decision) {
	fmt.Fprintf(b, "- **%s:** %s\n", label, value)
	fmt.Fprintf(b, "  - Decisão: [%c]\n", d.Marker())
}

func noteName(path string) string {
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".md")
}
