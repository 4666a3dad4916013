// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone works on hosts without zoneinfo

	"gopkg.in/yaml.v3"

	"jobwatch/internal/domain"
)

type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts" validate:"min=1,max=10"`
	InitialSeconds float64 `yaml:"initial_seconds" validate:"gt=0"`
	MaxSeconds     float64 `yaml:"max_seconds" validate:"gtefield=InitialSeconds"`
	Multiplier     float64 `yaml:"multiplier" validate:"gte=1"`
}

type Config struct {
	Sources     []domain.Source `yaml:"sources" validate:"required,min=1,dive"`
	SearchTerms []string        `yaml:"search_terms" validate:"required,min=1,dive,required"`
	Timezone    string          `yaml:"timezone"`

	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	} `yaml:"log"`

	History struct {
		Path string `yaml:"path" validate:"required"`
	} `yaml:"history"`

	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" validate:"required_if=Enabled true"`
		// RetentionDays prunes older runs after each run; 0 keeps everything.
		RetentionDays int `yaml:"retention_days" validate:"min=0"`
	} `yaml:"journal"`

	Scrape struct {
		Concurrency        int     `yaml:"concurrency" validate:"min=1,max=16"`
		RequestsPerSecond  float64 `yaml:"requests_per_second" validate:"gt=0"`
		Burst              int     `yaml:"burst" validate:"min=1"`
		TimeoutSeconds     int     `yaml:"timeout_seconds" validate:"min=1"`
		Browser            string  `yaml:"browser" validate:"oneof=auto always never"`
		BrowserWaitSeconds int     `yaml:"browser_wait_seconds" validate:"min=0"`
		UserAgent          string  `yaml:"user_agent"`
	} `yaml:"scrape"`

	Guard struct {
		AllowEmptySnapshot   bool    `yaml:"allow_empty_snapshot"`
		ProtectFailedSources bool    `yaml:"protect_failed_sources"`
		MinSnapshotRatio     float64 `yaml:"min_snapshot_ratio" validate:"gte=0,lte=1"`
	} `yaml:"guard"`

	Reconcile struct {
		ReopenPolicy string `yaml:"reopen_policy" validate:"omitempty,oneof=reset preserve"`
	} `yaml:"reconcile"`

	Sheets struct {
		SpreadsheetID string      `yaml:"spreadsheet_id"`
		Tab           string      `yaml:"tab"`
		Retry         RetryConfig `yaml:"retry"`
	} `yaml:"sheets"`

	Mail struct {
		SMTPHost       string   `yaml:"smtp_host"`
		SMTPPort       int      `yaml:"smtp_port" validate:"omitempty,min=1,max=65535"`
		From           string   `yaml:"from" validate:"omitempty,email"`
		To             []string `yaml:"to" validate:"dive,email"`
		IMAPHost       string   `yaml:"imap_host"`
		IMAPPort       int      `yaml:"imap_port" validate:"omitempty,min=1,max=65535"`
		ArchiveMailbox string   `yaml:"archive_mailbox"`
	} `yaml:"mail"`

	Telegram struct {
		ChatID int64 `yaml:"chat_id"`
	} `yaml:"telegram"`

	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`

	// Credentials never come from the YAML file.
	Credentials Credentials `yaml:"-"`
}

// Credentials are opaque secrets resolved from the environment or the OS keychain.
type Credentials struct {
	SMTPPassword  string
	SheetsJSON    []byte
	SheetsFile    string
	TelegramToken string
}

func Default() Config {
	var cfg Config
	cfg.Sources = []domain.Source{
		{Name: "Itaú", BaseURL: "https://vemproitau.gupy.io/"},
		{Name: "Boticário", BaseURL: "https://grupoboticario.gupy.io/"},
		{Name: "Raízen", BaseURL: "https://genteraizen.gupy.io/"},
		{Name: "C&A", BaseURL: "https://cea.gupy.io/"},
		{Name: "AmbevTech", BaseURL: "https://ambevtech.gupy.io"},
		{Name: "OLX", BaseURL: "https://vemsergrupoolx.gupy.io"},
		{Name: "Localiza", BaseURL: "https://localiza.gupy.io"},
		{Name: "BMG", BaseURL: "https://bmg.gupy.io"},
	}
	cfg.SearchTerms = []string{"Analista de BI", "Business Intelligence", "Data", "Dados", "Analytics", "Product", "Produto"}
	cfg.Timezone = "America/Sao_Paulo"
	cfg.Log.Level = "info"
	cfg.History.Path = "historico_vagas.csv"
	cfg.Journal.Enabled = true
	cfg.Journal.Path = "jobwatch.db"
	cfg.Journal.RetentionDays = 180

	cfg.Scrape.Concurrency = 4
	cfg.Scrape.RequestsPerSecond = 1
	cfg.Scrape.Burst = 1
	cfg.Scrape.TimeoutSeconds = 30
	cfg.Scrape.Browser = "auto"
	cfg.Scrape.BrowserWaitSeconds = 10
	cfg.Scrape.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) jobwatch/1.0"

	cfg.Guard.ProtectFailedSources = true
	cfg.Reconcile.ReopenPolicy = "reset"

	cfg.Sheets.Tab = "historico_vagas"
	cfg.Sheets.Retry = RetryConfig{MaxAttempts: 4, InitialSeconds: 2, MaxSeconds: 30, Multiplier: 2}

	cfg.Mail.SMTPHost = "smtp.gmail.com"
	cfg.Mail.SMTPPort = 465
	cfg.Mail.IMAPPort = 993

	cfg.Schedule.Cron = "@daily"
	cfg.Schedule.RunOnStart = true
	return cfg
}

// Load reads path on top of Default(). A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables. The names used by
// the first version of the tool (EMAIL_DESTINO, EMAIL_REMETENTE, SENHA_APP,
// SHEET_WORKSHEET_NAME) are still honored.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	str(&cfg.Log.Level, "LOG_LEVEL")
	str(&cfg.Timezone, "JOBWATCH_TIMEZONE", "TZ")
	str(&cfg.History.Path, "JOBWATCH_HISTORY_PATH")
	str(&cfg.Journal.Path, "JOBWATCH_JOURNAL_PATH")
	str(&cfg.Sheets.SpreadsheetID, "SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_ID")
	str(&cfg.Sheets.Tab, "SHEET_WORKSHEET_NAME")
	str(&cfg.Mail.From, "JOBWATCH_MAIL_FROM", "EMAIL_REMETENTE")
	str(&cfg.Mail.SMTPHost, "JOBWATCH_SMTP_HOST")
	str(&cfg.Mail.IMAPHost, "JOBWATCH_IMAP_HOST")
	str(&cfg.Mail.ArchiveMailbox, "JOBWATCH_ARCHIVE_MAILBOX")
	str(&cfg.Schedule.Cron, "JOBWATCH_CRON")

	if v := strings.TrimSpace(getenv("JOBWATCH_SMTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Mail.SMTPPort = n
		}
	}

	var to string
	str(&to, "JOBWATCH_MAIL_TO", "EMAIL_DESTINO")
	if to != "" {
		cfg.Mail.To = splitList(to)
	}

	if v := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}

// LoadCredentials resolves secrets through lookup (env first, then keychain).
func LoadCredentials(lookup func(string) string) Credentials {
	var c Credentials
	c.SMTPPassword = firstNonEmpty(lookup("JOBWATCH_SMTP_PASSWORD"), lookup("SENHA_APP"))
	if js := lookup("GOOGLE_SERVICE_ACCOUNT_CREDENTIALS"); js != "" {
		c.SheetsJSON = []byte(js)
	}
	c.SheetsFile = lookup("GOOGLE_APPLICATION_CREDENTIALS")
	c.TelegramToken = lookup("TELEGRAM_BOT_TOKEN")
	return c
}

// Location returns the configured time zone used to compute "today".
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
