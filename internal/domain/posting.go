package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/civil"
)

// Posting is a listing observed on a board during one run.
// Identifier is the canonical detail-page URL.
type Posting struct {
	Identifier string
	Source     string
	Title      string
	Location   string
}

// Record is one row of the history ledger.
type Record struct {
	Source     string
	Title      string
	Location   string
	Identifier string
	OpenedOn   civil.Date
	ClosedOn   civil.Date // zero unless Status == StatusClosed
	Status     Status
}

// NoDate is the absent value for Record.ClosedOn.
var NoDate civil.Date

func HasDate(d civil.Date) bool { return d != NoDate }

var ErrMissingIdentifier = errors.New("missing identifier")

func (r Record) Validate() error {
	if strings.TrimSpace(r.Identifier) == "" {
		return ErrMissingIdentifier
	}
	switch r.Status {
	case StatusActive, StatusReopened, StatusClosed:
	default:
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if !r.OpenedOn.IsValid() {
		return fmt.Errorf("invalid opened_on for %s", r.Identifier)
	}
	if r.Status == StatusClosed && !HasDate(r.ClosedOn) {
		return fmt.Errorf("closed record %s has no closed_on", r.Identifier)
	}
	if r.Status != StatusClosed && HasDate(r.ClosedOn) {
		return fmt.Errorf("%s record %s has closed_on set", r.Status, r.Identifier)
	}
	return nil
}

// FromPosting creates the ledger row for a posting first seen on day.
func FromPosting(p Posting, day civil.Date) Record {
	return Record{
		Source:     p.Source,
		Title:      p.Title,
		Location:   p.Location,
		Identifier: p.Identifier,
		OpenedOn:   day,
		Status:     StatusActive,
	}
}

func queryEscape(s string) string {
	return url.QueryEscape(strings.TrimSpace(s))
}
