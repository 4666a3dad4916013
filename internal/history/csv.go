// Package history persists the posting ledger as a CSV file.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/civil"

	"jobwatch/internal/domain"
)

// Header is the column order of the history file and of the spreadsheet.
var Header = []string{"source", "title", "location", "identifier", "opened_on", "closed_on", "status"}

// column aliases written by the first version of the tool
var legacyColumns = map[string]string{
	"empresa":         "source",
	"titulo":          "title",
	"local":           "location",
	"link":            "identifier",
	"data_abertura":   "opened_on",
	"data_fechamento": "closed_on",
}

// Issue describes a row that was dropped or repaired while loading.
type Issue struct {
	Line       int
	Identifier string
	Problem    string
	Dropped    bool
}

type LoadReport struct {
	Rows     int
	Issues   []Issue
	Repaired int
	Dropped  int
}

func (r *LoadReport) drop(line int, id, problem string) {
	r.Issues = append(r.Issues, Issue{Line: line, Identifier: id, Problem: problem, Dropped: true})
	r.Dropped++
}

func (r *LoadReport) repair(line int, id, problem string) {
	r.Issues = append(r.Issues, Issue{Line: line, Identifier: id, Problem: problem})
	r.Repaired++
}

// Load reads the ledger at path. A missing file is an empty history.
func Load(path string) ([]domain.Record, LoadReport, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, LoadReport{}, nil
	}
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a ledger. Malformed rows are dropped or repaired and reported,
// never fatal; only an unreadable stream or header is an error.
func Read(r io.Reader) ([]domain.Record, LoadReport, error) {
	var rep LoadReport

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, rep, nil
	}
	if err != nil {
		return nil, rep, fmt.Errorf("read history header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range head {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := legacyColumns[name]; ok {
			name = alias
		}
		cols[name] = i
	}
	if _, ok := cols["identifier"]; !ok {
		return nil, rep, fmt.Errorf("history header has no identifier column: %v", head)
	}

	var out []domain.Record
	seen := map[string]bool{}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rep.drop(line, "", err.Error())
			continue
		}
		rep.Rows++

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec, ok := parseRow(line, get, &rep)
		if !ok {
			continue
		}
		if seen[rec.Identifier] {
			rep.drop(line, rec.Identifier, "duplicate identifier")
			continue
		}
		seen[rec.Identifier] = true
		out = append(out, rec)
	}
	return out, rep, nil
}

func parseRow(line int, get func(string) string, rep *LoadReport) (domain.Record, bool) {
	rec := domain.Record{
		Source:     get("source"),
		Title:      get("title"),
		Location:   get("location"),
		Identifier: get("identifier"),
	}
	if rec.Identifier == "" {
		rep.drop(line, "", "missing identifier")
		return rec, false
	}

	st, err := domain.ParseStatus(get("status"))
	if err != nil {
		rep.drop(line, rec.Identifier, err.Error())
		return rec, false
	}
	rec.Status = st

	opened, err := parseDate(get("opened_on"))
	if err != nil || !domain.HasDate(opened) {
		rep.drop(line, rec.Identifier, "missing or invalid opened_on")
		return rec, false
	}
	rec.OpenedOn = opened

	closed, err := parseDate(get("closed_on"))
	if err != nil {
		rep.repair(line, rec.Identifier, "invalid closed_on ignored")
		closed = domain.NoDate
	}

	switch {
	case rec.Status == domain.StatusClosed && !domain.HasDate(closed):
		rep.repair(line, rec.Identifier, "closed without closed_on; using opened_on")
		closed = rec.OpenedOn
	case rec.Status.IsOpen() && domain.HasDate(closed):
		rep.repair(line, rec.Identifier, "open record had closed_on; cleared")
		closed = domain.NoDate
	}
	rec.ClosedOn = closed
	return rec, true
}

// parseDate accepts YYYY-MM-DD, optionally followed by a time part, and the
// null markers pandas writes for missing values.
func parseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "nat", "<na>", "null", "none":
		return domain.NoDate, nil
	}
	if len(s) > 10 {
		s = s[:10]
	}
	return civil.ParseDate(s)
}

func formatDate(d civil.Date) string {
	if !domain.HasDate(d) {
		return ""
	}
	return d.String()
}

// Row renders a record in Header order.
func Row(r domain.Record) []string {
	return []string{
		r.Source,
		r.Title,
		r.Location,
		r.Identifier,
		formatDate(r.OpenedOn),
		formatDate(r.ClosedOn),
		string(r.Status),
	}
}

func Write(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save replaces the ledger atomically: the new content is written to a temp
// file in the same directory, synced, and renamed over path. The previous
// file is kept as path.bak.
func Save(path string, records []domain.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := Write(tmp, records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save history: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save history: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save history: close: %w", err)
	}

	bak := path + ".bak"
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(bak)
		if err := os.Link(path, bak); err != nil {
			_ = copyFile(path, bak)
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("save history: rename: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}
