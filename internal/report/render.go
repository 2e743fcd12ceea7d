package report

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

const reportTemplate = `# Relatório de Estudos

**Gerado em:** {{.GeneratedAt}}

## Estatísticas Gerais

- **Total de notas:** {{.Stats.TotalNotes}}
- **Notas com metadados:** {{.Stats.WithMetadata}}
- **Cobertura:** {{printf "%.1f" .Stats.CoveragePercent}}%
{{- if .Stats.Skipped}}
- **Notas ignoradas (erro de leitura):** {{.Stats.Skipped}}
{{- end}}

## Distribuição por Área
{{range .Stats.Areas}}
- **{{.Area}}:** {{.Count}} {{plural .Count "nota" "notas"}} ({{percent .Count $.Stats.WithMetadata}})
{{- else}}
Nenhuma nota com metadados.
{{- end}}

## Distribuição por Relevância
{{- range $level := .Levels}}
{{- with index $.Stats.Relevance $level}}
- **Nível {{$level}} {{stars $level}}:** {{.}} {{plural . "nota" "notas"}}
{{- end}}
{{- end}}
{{if .Stats.LowCoverage}}
## Áreas com Baixa Cobertura (menos de {{.Threshold}} notas)
{{range .Stats.LowCoverage}}
- {{.}}
{{- end}}
{{end}}
{{- if .Stats.HighRelevance}}
## Notas de Alta Relevância para Revisão
{{range .Stats.HighRelevance}}
- **{{.Title}}** (Relevância: {{.Relevance}}{{if .Area}}, Área: {{.Area}}{{end}})
{{- end}}
{{end}}`

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent": func(part, whole int) string {
		if whole == 0 {
			return "0.0%"
		}
		return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
	},
	"plural": func(n int, singular, plural string) string {
		if n == 1 {
			return singular
		}
		return plural
	},
	"stars": func(level int) string {
		out := ""
		for i := 0; i < level; i++ {
			out += "⭐"
		}
		return out
	},
}).Parse(reportTemplate))

// Render produces the human-readable Markdown summary.
func Render(stats *Stats, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, struct {
		Stats       *Stats
		GeneratedAt string
		Levels      []int
		Threshold   int
	}{
		Stats:       stats,
		GeneratedAt: generatedAt.Format("2006-01-02 15:04"),
		Levels:      []int{5, 4, 3, 2, 1},
		Threshold:   LowCoverageThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	return buf.Bytes(), nil
}
