package sheets

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"jobwatch/internal/config"
	"jobwatch/internal/domain"
	"jobwatch/internal/logging"
	"jobwatch/internal/retry"
)

type fakeValues struct {
	calls      []string
	clearErrs  []error
	updateErrs []error
	written    [][]interface{}
}

func (f *fakeValues) ClearValues(_ context.Context, id, rng string) error {
	f.calls = append(f.calls, "clear "+id+" "+rng)
	if len(f.clearErrs) > 0 {
		err := f.clearErrs[0]
		f.clearErrs = f.clearErrs[1:]
		return err
	}
	return nil
}

func (f *fakeValues) UpdateValues(_ context.Context, id, rng string, values [][]interface{}) error {
	f.calls = append(f.calls, "update "+id+" "+rng)
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		return err
	}
	f.written = values
	return nil
}

var fastPolicy = retry.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2}

func records() []domain.Record {
	return []domain.Record{
		{Source: "Itaú", Title: "Analista", Identifier: "https://x/1", OpenedOn: civil.Date{Year: 2024, Month: 1, Day: 2}, Status: domain.StatusActive},
		{Source: "BMG", Title: "Dados", Location: "Remoto", Identifier: "https://x/2",
			OpenedOn: civil.Date{Year: 2024, Month: 1, Day: 1}, ClosedOn: civil.Date{Year: 2024, Month: 2, Day: 1}, Status: domain.StatusClosed},
	}
}

func TestNewSink_Disabled(t *testing.T) {
	_, err := NewSink(nil, "id", "tab", fastPolicy, logging.Nop())
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = NewSink(&fakeValues{}, "", "tab", fastPolicy, logging.Nop())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestPush_ClearsThenWrites(t *testing.T) {
	api := &fakeValues{}
	s, err := NewSink(api, "sheet-1", "historico_vagas", fastPolicy, logging.Nop())
	require.NoError(t, err)

	require.NoError(t, s.Push(context.Background(), records()))

	assert.Equal(t, []string{
		"clear sheet-1 'historico_vagas'!A:Z",
		"update sheet-1 'historico_vagas'!A1",
	}, api.calls)
	require.Len(t, api.written, 3)
	assert.Equal(t, []interface{}{"source", "title", "location", "identifier", "opened_on", "closed_on", "status"}, api.written[0])
	assert.Equal(t, []interface{}{"Itaú", "Analista", "", "https://x/1", "2024-01-02", "", "active"}, api.written[1])
	assert.Equal(t, []interface{}{"BMG", "Dados", "Remoto", "https://x/2", "2024-01-01", "2024-02-01", "closed"}, api.written[2])
}

func TestPush_QuotesTabName(t *testing.T) {
	api := &fakeValues{}
	s, err := NewSink(api, "sheet-1", "Vagas d'Ávila", fastPolicy, logging.Nop())
	require.NoError(t, err)

	require.NoError(t, s.Push(context.Background(), records()))
	assert.Equal(t, []string{
		"clear sheet-1 'Vagas d''Ávila'!A:Z",
		"update sheet-1 'Vagas d''Ávila'!A1",
	}, api.calls)
}

func TestPush_EmptyHistoryWritesHeaderOnly(t *testing.T) {
	api := &fakeValues{}
	s, _ := NewSink(api, "sheet-1", "", fastPolicy, logging.Nop())

	require.NoError(t, s.Push(context.Background(), nil))
	assert.Len(t, api.written, 1)
}

func TestPush_RetriesTransientErrors(t *testing.T) {
	api := &fakeValues{
		clearErrs:  []error{&googleapi.Error{Code: http.StatusServiceUnavailable}},
		updateErrs: []error{errors.New("connection reset")},
	}
	s, _ := NewSink(api, "sheet-1", "t", fastPolicy, logging.Nop())

	require.NoError(t, s.Push(context.Background(), records()))
	assert.Len(t, api.calls, 4)
}

func TestPush_PermanentErrorStopsImmediately(t *testing.T) {
	api := &fakeValues{clearErrs: []error{&googleapi.Error{Code: http.StatusForbidden, Message: "no access"}}}
	s, _ := NewSink(api, "sheet-1", "t", fastPolicy, logging.Nop())

	err := s.Push(context.Background(), records())
	require.Error(t, err)
	assert.Len(t, api.calls, 1)
	assert.Nil(t, api.written)
}

func TestPush_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeValues{updateErrs: []error{boom, boom, boom}}
	s, _ := NewSink(api, "sheet-1", "t", fastPolicy, logging.Nop())

	err := s.Push(context.Background(), records())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, api.calls, 4)
}

func TestFromConfig_DisabledWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Sheets.SpreadsheetID = "abc"
	_, err := FromConfig(context.Background(), cfg, logging.Nop())
	assert.ErrorIs(t, err, ErrDisabled)

	cfg.Sheets.SpreadsheetID = ""
	cfg.Credentials.SheetsJSON = []byte(`{}`)
	_, err = FromConfig(context.Background(), cfg, logging.Nop())
	assert.ErrorIs(t, err, ErrDisabled)
}
