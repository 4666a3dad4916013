// Package sheets mirrors the history ledger into a Google Sheets tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"jobwatch/internal/config"
	"jobwatch/internal/domain"
	"jobwatch/internal/history"
	"jobwatch/internal/logging"
	"jobwatch/internal/retry"
)

// ErrDisabled is returned by NewSink when the spreadsheet is not configured.
var ErrDisabled = errors.New("sheets sink disabled")

// Values is the subset of the Sheets API the sink needs.
type Values interface {
	ClearValues(ctx context.Context, spreadsheetID, range_ string) error
	UpdateValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
}

type Sink struct {
	api           Values
	spreadsheetID string
	tab           string
	policy        retry.Policy
	log           *logging.Logger
}

func NewSink(api Values, spreadsheetID, tab string, policy retry.Policy, log *logging.Logger) (*Sink, error) {
	if api == nil || spreadsheetID == "" {
		return nil, ErrDisabled
	}
	if tab == "" {
		tab = "historico_vagas"
	}
	return &Sink{api: api, spreadsheetID: spreadsheetID, tab: tab, policy: policy, log: log}, nil
}

// Push replaces the tab contents with the header and one row per record.
// A failure between clear and update leaves the tab empty until the next push.
func (s *Sink) Push(ctx context.Context, records []domain.Record) error {
	values := make([][]interface{}, 0, len(records)+1)
	values = append(values, toRow(history.Header))
	for _, r := range records {
		values = append(values, toRow(history.Row(r)))
	}

	clearRange := tabRange(s.tab, "A:Z")
	if err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return classify(s.api.ClearValues(ctx, s.spreadsheetID, clearRange))
	}); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	writeRange := tabRange(s.tab, "A1")
	if err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return classify(s.api.UpdateValues(ctx, s.spreadsheetID, writeRange, values))
	}); err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}

	s.log.Info("[sheets] pushed", "tab", s.tab, "rows", len(records))
	return nil
}

// tabRange builds an A1 range; quotes inside a sheet name are doubled.
func tabRange(tab, cells string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + cells
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// classify marks client errors other than rate limiting as permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500 {
			return err
		}
		if gerr.Code >= 400 {
			return retry.Permanent(err)
		}
	}
	return err
}

// FromConfig builds the sink from configuration and resolved credentials.
// It returns ErrDisabled when there is no spreadsheet id or no credentials.
func FromConfig(ctx context.Context, cfg config.Config, log *logging.Logger) (*Sink, error) {
	creds := cfg.Credentials
	if cfg.Sheets.SpreadsheetID == "" || (len(creds.SheetsJSON) == 0 && creds.SheetsFile == "") {
		return nil, ErrDisabled
	}
	client, err := NewClient(ctx, Config{CredentialsPath: creds.SheetsFile, CredentialsJSON: creds.SheetsJSON})
	if err != nil {
		return nil, err
	}
	return NewSink(client, cfg.Sheets.SpreadsheetID, cfg.Sheets.Tab, retry.FromConfig(cfg.Sheets.Retry), log)
}
