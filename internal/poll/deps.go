package poll

import (
	"context"
	"errors"

	"jobwatch/internal/config"
	"jobwatch/internal/logging"
	"jobwatch/internal/notify"
	"jobwatch/internal/scrape"
	"jobwatch/internal/sheets"
	"jobwatch/internal/store"
)

// BuildDeps wires the production collaborators from configuration. Sinks
// that are not configured stay nil. The returned close func releases the
// journal database.
func BuildDeps(ctx context.Context, cfg config.Config, log *logging.Logger) (Deps, func()) {
	deps := Deps{
		Fetcher: scrape.NewFetcher(cfg),
		Log:     log,
	}
	closeFn := func() {}

	if cfg.Journal.Enabled {
		db, err := store.Open(cfg.Journal.Path)
		if err != nil {
			log.Warn("[journal] disabled", "path", cfg.Journal.Path, "err", err)
		} else {
			deps.Journal = db
			closeFn = func() { _ = db.Close() }
		}
	}

	sink, err := sheets.FromConfig(ctx, cfg, log)
	switch {
	case errors.Is(err, sheets.ErrDisabled):
		log.Info("[sheets] disabled: no spreadsheet id or credentials")
	case err != nil:
		log.Warn("[sheets] disabled", "err", err)
	default:
		deps.Sheets = sink
	}

	deps.Notifier = notify.FromConfig(cfg, log)
	return deps, closeFn
}
