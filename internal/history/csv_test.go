package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch/internal/domain"
)

var (
	jan1 = civil.Date{Year: 2024, Month: 1, Day: 1}
	feb1 = civil.Date{Year: 2024, Month: 2, Day: 1}
)

func sample() []domain.Record {
	return []domain.Record{
		{Source: "Itaú", Title: "Analista de BI", Location: "São Paulo", Identifier: "https://vemproitau.gupy.io/jobs/1", OpenedOn: jan1, Status: domain.StatusActive},
		{Source: "OLX", Title: "Data, Analytics", Identifier: "https://vemsergrupoolx.gupy.io/jobs/2", OpenedOn: jan1, ClosedOn: feb1, Status: domain.StatusClosed},
		{Source: "BMG", Title: `Produto "Sênior"`, Identifier: "https://bmg.gupy.io/jobs/3", OpenedOn: feb1, Status: domain.StatusReopened},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "historico_vagas.csv")
	require.NoError(t, Save(path, sample()))

	got, rep, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
	assert.Empty(t, rep.Issues)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "source,title,location,identifier,opened_on,closed_on,status\n"))
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	got, rep, err := Load(filepath.Join(t.TempDir(), "none.csv"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, rep.Rows)
}

func TestSave_KeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.csv")
	require.NoError(t, Save(path, sample()[:1]))
	require.NoError(t, Save(path, sample()))

	prev, _, err := Load(path + ".bak")
	require.NoError(t, err)
	assert.Len(t, prev, 1)

	cur, _, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cur, 3)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRead_LegacyFormat(t *testing.T) {
	in := "empresa,titulo,local,link,data_abertura,data_fechamento,status\n" +
		"Itaú,Analista,Remoto,https://vemproitau.gupy.io/jobs/9,2024-01-01,,ativa\n" +
		"C&A,Dados,São Paulo,https://cea.gupy.io/jobs/8,2024-01-01 00:00:00,2024-02-01,fechada\n"

	got, rep, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, rep.Issues)
	assert.Equal(t, domain.StatusActive, got[0].Status)
	assert.Equal(t, "Remoto", got[0].Location)
	assert.Equal(t, domain.StatusClosed, got[1].Status)
	assert.Equal(t, feb1, got[1].ClosedOn)
	assert.Equal(t, jan1, got[1].OpenedOn)
}

func TestRead_DropsAndRepairs(t *testing.T) {
	in := strings.Join([]string{
		"source,title,location,identifier,opened_on,closed_on,status",
		"A,no id,,,2024-01-01,,active",
		"A,no status,,https://x/1,2024-01-01,,",
		"A,bad date,,https://x/2,yesterday,,active",
		"A,closed no date,,https://x/3,2024-01-01,,closed",
		"A,open with date,,https://x/4,2024-01-01,2024-02-01,active",
		"A,nan marker,,https://x/5,2024-01-01,NaN,reopened",
		"A,dup,,https://x/4,2024-01-05,,active",
	}, "\n")

	got, rep, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	var ids []string
	for _, r := range got {
		ids = append(ids, r.Identifier)
		assert.NoError(t, r.Validate())
	}
	assert.Equal(t, []string{"https://x/3", "https://x/4", "https://x/5"}, ids)
	assert.Equal(t, 4, rep.Dropped)
	assert.Equal(t, 2, rep.Repaired)
	assert.Equal(t, jan1, got[0].ClosedOn)
	assert.False(t, domain.HasDate(got[1].ClosedOn))
	assert.Equal(t, "open with date", got[1].Title)
}

func TestRead_HeaderWithoutIdentifier(t *testing.T) {
	_, _, err := Read(strings.NewReader("title,status\nx,active\n"))
	assert.Error(t, err)
}

func TestRead_EmptyFile(t *testing.T) {
	got, _, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.csv")

	first, err := Lock(path)
	require.NoError(t, err)

	_, err = Lock(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Unlock())
	again, err := Lock(path)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}
