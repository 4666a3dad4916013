package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default().History.Path, cfg.History.Path)
	assert.Len(t, cfg.Sources, 8)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	content := `
sources:
  - name: Itaú
    url: https://vemproitau.gupy.io/
search_terms: [Data]
history:
  path: /tmp/h.csv
scrape:
  concurrency: 2
reconcile:
  reopen_policy: preserve
`
	path := filepath.Join(t.TempDir(), "jobwatch.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Sources, 1)
	assert.Equal(t, []string{"Data"}, cfg.SearchTerms)
	assert.Equal(t, "/tmp/h.csv", cfg.History.Path)
	assert.Equal(t, 2, cfg.Scrape.Concurrency)
	assert.Equal(t, "preserve", cfg.Reconcile.ReopenPolicy)
	// untouched keys keep their defaults
	assert.Equal(t, 465, cfg.Mail.SMTPPort)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobwatch.yml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [ {"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv_LegacyNames(t *testing.T) {
	cfg := Default()
	ApplyEnv(&cfg, envMap(map[string]string{
		"EMAIL_DESTINO":        "a@example.com; b@example.com",
		"EMAIL_REMETENTE":      "bot@example.com",
		"SHEET_WORKSHEET_NAME": "Vagas",
		"TELEGRAM_CHAT_ID":     "-100123",
		"JOBWATCH_SMTP_PORT":   "587",
	}))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.To)
	assert.Equal(t, "bot@example.com", cfg.Mail.From)
	assert.Equal(t, "Vagas", cfg.Sheets.Tab)
	assert.Equal(t, int64(-100123), cfg.Telegram.ChatID)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
}

func TestLoadCredentials(t *testing.T) {
	c := LoadCredentials(envMap(map[string]string{
		"SENHA_APP":                          "app-pass",
		"GOOGLE_SERVICE_ACCOUNT_CREDENTIALS": `{"type":"service_account"}`,
		"TELEGRAM_BOT_TOKEN":                 "tok",
	}))
	assert.Equal(t, "app-pass", c.SMTPPassword)
	assert.JSONEq(t, `{"type":"service_account"}`, string(c.SheetsJSON))
	assert.Equal(t, "tok", c.TelegramToken)
	assert.Empty(t, c.SheetsFile)
}

func TestValidate_ReportsFieldPaths(t *testing.T) {
	cfg := Default()
	cfg.Scrape.Concurrency = 0
	cfg.Scrape.Browser = "sometimes"
	cfg.Sources = nil

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "scrape.concurrency")
	assert.Contains(t, err.Error(), "scrape.browser")
	assert.Contains(t, err.Error(), "sources")
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.SearchTerms = []string{" Data ", "data", "", "Produto"}
	cfg.Sources = append(cfg.Sources, cfg.Sources[0])
	cfg.Guard.AllowEmptySnapshot = true

	out, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK(), res.Errors)
	assert.Equal(t, []string{"Data", "Produto"}, out.SearchTerms)
	assert.Len(t, out.Sources, 8)
	assert.NotEmpty(t, res.Warnings)
}

func TestNormalizeAndValidate_BadSourceURL(t *testing.T) {
	cfg := Default()
	cfg.Sources[0].BaseURL = "not a url"
	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
}

func TestSaveAtomicAndBootstrap(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir, filepath.Join(dir, "missing-default.yml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().SearchTerms, cfg.SearchTerms)

	cfg.SearchTerms = []string{"Go"}
	require.NoError(t, SaveAtomic(path, cfg))
	_, err = os.Stat(path + ".bak")
	assert.NoError(t, err)

	again, err := EnsureUserConfig(dir, "")
	require.NoError(t, err)
	reloaded, err := Load(again)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, reloaded.SearchTerms)
}

func TestEnsureUserConfig_CopiesTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.yml")
	require.NoError(t, os.WriteFile(tmpl, []byte("# boards\nsearch_terms: [Go]\n"), 0o644))

	dataDir := filepath.Join(dir, "nested", "data")
	path, err := EnsureUserConfig(dataDir, tmpl)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "# boards")

	require.NoError(t, os.WriteFile(tmpl, []byte("search_terms: [\n"), 0o644))
	_, err = EnsureUserConfig(filepath.Join(dir, "other"), tmpl)
	assert.Error(t, err)
}

func TestSaveAtomic_RejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.History.Path = ""
	err := SaveAtomic(filepath.Join(t.TempDir(), FileName), cfg)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestOverlaySources(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()

	require.NoError(t, OverlaySources(&cfg, filepath.Join(dir, "absent.yml")))
	assert.Len(t, cfg.Sources, 8)

	p := filepath.Join(dir, "sources.yml")
	require.NoError(t, os.WriteFile(p, []byte("sources:\n  - name: BMG\n    url: https://bmg.gupy.io\n"), 0o644))
	require.NoError(t, OverlaySources(&cfg, p))
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "BMG", cfg.Sources[0].Name)
	assert.Equal(t, Default().SearchTerms, cfg.SearchTerms)
}
