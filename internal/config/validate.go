package config

import (
	"fmt"
	"strings"

	"jobwatch/internal/domain"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus the problems found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.SearchTerms = trimList(out.SearchTerms)
	out.Mail.To = trimList(out.Mail.To)
	out.Reconcile.ReopenPolicy = strings.ToLower(strings.TrimSpace(out.Reconcile.ReopenPolicy))
	out.Scrape.Browser = strings.ToLower(strings.TrimSpace(out.Scrape.Browser))

	// sources: trim, drop blanks, dedupe by name
	seenSrc := map[string]bool{}
	var sources []domain.Source
	for _, s := range out.Sources {
		s.Name = strings.TrimSpace(s.Name)
		s.BaseURL = strings.TrimSpace(s.BaseURL)
		if s.Name == "" && s.BaseURL == "" {
			continue
		}
		key := strings.ToLower(s.Name)
		if seenSrc[key] {
			res.addWarn("source %q listed twice; keeping the first entry", s.Name)
			continue
		}
		seenSrc[key] = true
		sources = append(sources, s)
	}
	out.Sources = sources

	// ---- Validation rules ----

	for _, e := range structErrors(out) {
		res.addErr("%s", e)
	}

	if out.Scrape.RequestsPerSecond > 5 {
		res.addWarn("scrape.requests_per_second is high (%.1f) and may get the scraper blocked.", out.Scrape.RequestsPerSecond)
	}
	if out.Guard.AllowEmptySnapshot {
		res.addWarn("guard.allow_empty_snapshot is on; a total scrape outage will close every open posting.")
	}
	if len(out.Sources)*len(out.SearchTerms) > 200 {
		res.addWarn("%d source/term pairs per run; consider trimming search_terms.", len(out.Sources)*len(out.SearchTerms))
	}

	// sinks that are configured only halfway
	if len(out.Mail.To) > 0 && out.Mail.From == "" {
		res.addWarn("mail.to is set but mail.from is empty; the e-mail digest is disabled.")
	}
	if out.Mail.ArchiveMailbox != "" && out.Mail.IMAPHost == "" {
		res.addWarn("mail.archive_mailbox is set but mail.imap_host is empty; archival is disabled.")
	}
	if out.Sheets.SpreadsheetID == "" {
		res.addWarn("sheets.spreadsheet_id is empty; the spreadsheet sink is disabled.")
	}

	return out, res
}
