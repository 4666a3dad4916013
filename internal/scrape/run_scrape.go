package scrape

import (
	"context"
	"time"

	"jobwatch/internal/config"
	"jobwatch/internal/domain"
	"jobwatch/internal/logging"
	"jobwatch/internal/scrape/gupy"
	"jobwatch/internal/scrape/types"
	"jobwatch/internal/scrape/util"

	"golang.org/x/sync/errgroup"
)

// NewFetcher wires the Gupy scraper with the configured pacing and browser mode.
func NewFetcher(cfg config.Config) types.Fetcher {
	limiter := util.NewBoardLimiter(cfg.Sources, cfg.Scrape.RequestsPerSecond, cfg.Scrape.Burst)
	timeout := cfg.ScrapeTimeout()

	httpR := gupy.NewHTTPRenderer(timeout, limiter, cfg.Scrape.UserAgent)
	var browser types.Renderer
	if cfg.Scrape.Browser != gupy.ModeNever {
		wait := time.Duration(cfg.Scrape.BrowserWaitSeconds) * time.Second
		browser = gupy.NewBrowserRenderer(timeout, wait, limiter)
	}
	return gupy.New(httpR, browser, cfg.Scrape.Browser)
}

// RunScrape fetches every (source, term) pair. Failures are logged and counted
// per source; they never cancel the other fetches. Postings come back in
// config order: source order, then term order, then page order.
func RunScrape(ctx context.Context, cfg config.Config, f types.Fetcher, log *logging.Logger) types.Snapshot {
	type pair struct {
		src  domain.Source
		term string
	}
	var pairs []pair
	for _, s := range cfg.Sources {
		for _, t := range cfg.SearchTerms {
			pairs = append(pairs, pair{s, t})
		}
	}

	slots := make([][]domain.Posting, len(pairs))
	failed := make([]bool, len(pairs))

	limit := cfg.Scrape.Concurrency
	if limit < 1 {
		limit = 1
	}
	// budget per pair covers the HTTP attempt plus a browser fallback
	timeout := 2*cfg.ScrapeTimeout() + time.Duration(cfg.Scrape.BrowserWaitSeconds+5)*time.Second

	var g errgroup.Group
	g.SetLimit(limit)

	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Debug("[scrape] searching", "source", p.src.Name, "term", p.term)
			posts, err := f.Fetch(fctx, p.src, p.term)
			if err != nil {
				log.Warn("[scrape] fetch failed", "fetcher", f.Name(), "source", p.src.Name, "term", p.term, "err", err)
				failed[i] = true
				return nil // best-effort: don't cancel siblings
			}
			slots[i] = posts
			return nil
		})
	}
	_ = g.Wait()

	snap := types.Snapshot{
		Attempts: make(map[string]int, len(cfg.Sources)),
		Failures: make(map[string]int),
	}
	for i, p := range pairs {
		snap.Attempts[p.src.Name]++
		if failed[i] {
			snap.Failures[p.src.Name]++
			continue
		}
		snap.Postings = append(snap.Postings, slots[i]...)
	}

	log.Info("[scrape] finished",
		"pairs", len(pairs),
		"postings", len(snap.Postings),
		"failures", snap.TotalFailures())
	return snap
}
