// Package notify tells the user about newly observed postings: an email
// digest (optionally archived over IMAP) and a Telegram message.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"cloud.google.com/go/civil"

	"jobwatch/internal/domain"
)

// Digest is the rendered notification for one run's delta.
type Digest struct {
	Subject string
	HTML    string
	Text    string
}

type digestRow struct {
	Title    string
	Source   string
	Location string
	Link     string
	Kind     string
}

var digestTmpl = template.Must(template.New("digest").Parse(`<html>
<head>
<style>
  body { font-family: sans-serif; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #dddddd; text-align: left; padding: 8px; }
  th { background-color: #f2f2f2; }
</style>
</head>
<body>
<h2>Novas vagas encontradas!</h2>
<p>{{len .Rows}} vaga(s) nova(s) ou reaberta(s) em {{.Day}}:</p>
<table>
<tr><th>Empresa</th><th>Título</th><th>Local</th><th>Situação</th><th>Link</th></tr>
{{- range .Rows}}
<tr><td>{{.Source}}</td><td>{{.Title}}</td><td>{{.Location}}</td><td>{{.Kind}}</td><td><a href="{{.Link}}">{{.Link}}</a></td></tr>
{{- end}}
</table>
<p>Boa sorte!</p>
</body>
</html>
`))

// BuildDigest renders delta in its given order.
func BuildDigest(delta []domain.Record, day civil.Date) (Digest, error) {
	dayStr := FormatDay(day)
	rows := make([]digestRow, 0, len(delta))
	for _, r := range delta {
		rows = append(rows, digestRow{
			Title:    r.Title,
			Source:   r.Source,
			Location: locationOrDefault(r.Location),
			Link:     r.Identifier,
			Kind:     kindLabel(r.Status),
		})
	}

	var html bytes.Buffer
	if err := digestTmpl.Execute(&html, struct {
		Day  string
		Rows []digestRow
	}{dayStr, rows}); err != nil {
		return Digest{}, fmt.Errorf("render digest: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Novas vagas encontradas em %s:\n\n", dayStr)
	for _, r := range rows {
		fmt.Fprintf(&text, "- [%s] %s | %s | %s\n  %s\n", r.Kind, r.Title, r.Source, r.Location, r.Link)
	}

	return Digest{
		Subject: fmt.Sprintf("Novas vagas encontradas (%s)", dayStr),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// FormatDay renders DD/MM/YYYY.
func FormatDay(d civil.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

func kindLabel(s domain.Status) string {
	if s == domain.StatusReopened {
		return "reaberta"
	}
	return "nova"
}

func locationOrDefault(loc string) string {
	if loc == "" {
		return "Remoto"
	}
	return loc
}
