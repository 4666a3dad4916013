package poll

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"jobwatch/internal/config"
	"jobwatch/internal/domain"
	"jobwatch/internal/history"
	"jobwatch/internal/logging"
	"jobwatch/internal/reconcile"
	"jobwatch/internal/scrape"
	"jobwatch/internal/scrape/types"
	"jobwatch/internal/store"
)

type Journal interface {
	RecordRun(ctx context.Context, run store.Run, transitions []store.Transition) (string, error)
	CleanupOldRuns(ctx context.Context, cutoff time.Time) (int64, error)
}

type SheetSink interface {
	Push(ctx context.Context, records []domain.Record) error
}

type Notifier interface {
	Notify(ctx context.Context, delta []domain.Record, day civil.Date) error
}

// Deps are the collaborators of one run. Nil sinks are skipped.
type Deps struct {
	Fetcher  types.Fetcher
	Journal  Journal
	Sheets   SheetSink
	Notifier Notifier
	Clock    func() time.Time
	Log      *logging.Logger

	// DryRun scrapes and reconciles but writes nothing.
	DryRun bool
}

// Report summarizes one run.
type Report struct {
	RunID      string
	Day        civil.Date
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool

	Load          history.LoadReport
	Observed      int
	Failures      int
	FailedSources []string
	Guard         GuardDecision

	Delta      []domain.Record
	Opened     int
	Reopened   int
	Closed     int
	Suppressed int
	Rejected   int
	Duplicates int
	Total      int

	JournalErr error
	SheetsErr  error
	NotifyErr  error
}

// RunOnce performs one scrape → reconcile → sinks cycle. Only failures that
// leave the ledger unwritten are returned; sink failures land in the report.
func RunOnce(ctx context.Context, deps Deps, cfg config.Config) (Report, error) {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	now := time.Now
	if deps.Clock != nil {
		now = deps.Clock
	}

	start := now()
	rep := Report{
		RunID:     store.NewRunID(),
		StartedAt: start,
		Day:       civil.DateOf(start.In(cfg.Location())),
		DryRun:    deps.DryRun,
	}
	log = log.With("run", rep.RunID)

	path := cfg.History.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return rep, fmt.Errorf("create history dir: %w", err)
		}
	}
	lock, err := history.Lock(path)
	if err != nil {
		return rep, err
	}
	defer func() { _ = lock.Unlock() }()

	hist, loadRep, err := history.Load(path)
	if err != nil {
		return rep, fmt.Errorf("load history: %w", err)
	}
	rep.Load = loadRep
	for _, is := range loadRep.Issues {
		log.Warn("[history] row issue", "line", is.Line, "identifier", is.Identifier, "problem", is.Problem, "dropped", is.Dropped)
	}
	log.Info("[history] loaded", "path", path, "records", len(hist))

	snap := scrape.RunScrape(ctx, cfg, deps.Fetcher, log)
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("scrape interrupted: %w", err)
	}
	rep.Observed = len(snap.Postings)
	rep.Failures = snap.TotalFailures()
	rep.FailedSources = snap.FailedSources()
	sort.Strings(rep.FailedSources)

	rep.Guard = Guard(cfg, hist, snap)
	if rep.Guard.SuppressClosures {
		log.Warn("[guard] closures suppressed", "reason", rep.Guard.Reason)
	}
	if len(rep.Guard.Protected) > 0 {
		log.Warn("[guard] protecting failed sources", "sources", rep.FailedSources)
	}

	policy, ok := reconcile.ParseReopenPolicy(cfg.Reconcile.ReopenPolicy)
	if !ok {
		log.Warn("[reconcile] unknown reopen policy; using reset", "policy", cfg.Reconcile.ReopenPolicy)
	}
	res := reconcile.Reconcile(hist, snap.Postings, rep.Day, reconcile.Options{
		ReopenPolicy:     policy,
		SuppressClosures: rep.Guard.SuppressClosures,
		ProtectedSources: rep.Guard.Protected,
	})
	for _, p := range res.Rejected {
		log.Warn("[reconcile] posting without identifier", "source", p.Source, "title", p.Title)
	}
	rep.Delta = res.Delta
	rep.Opened = len(res.Opened)
	rep.Reopened = len(res.Reopened)
	rep.Closed = len(res.Closed)
	rep.Suppressed = len(res.Suppressed)
	rep.Rejected = len(res.Rejected)
	rep.Duplicates = len(res.DuplicateSnapshot) + len(res.DuplicateHistory)
	rep.Total = len(res.History)

	log.Info("[reconcile] done",
		"observed", rep.Observed,
		"opened", rep.Opened,
		"reopened", rep.Reopened,
		"closed", rep.Closed,
		"suppressed", rep.Suppressed)

	if deps.DryRun {
		rep.FinishedAt = now()
		log.Info("[poll] dry run; nothing written")
		return rep, nil
	}

	if err := history.Save(path, res.History); err != nil {
		rep.FinishedAt = now()
		saveErr := fmt.Errorf("save history: %w", err)
		rep.JournalErr = recordRun(ctx, deps.Journal, rep, res, saveErr, log)
		return rep, saveErr
	}
	log.Info("[history] saved", "path", path, "records", rep.Total)

	rep.FinishedAt = now()
	rep.JournalErr = recordRun(ctx, deps.Journal, rep, res, nil, log)
	if rep.JournalErr == nil {
		pruneJournal(ctx, deps.Journal, cfg.Journal.RetentionDays, rep.FinishedAt, log)
	}

	if deps.Sheets != nil {
		if err := deps.Sheets.Push(ctx, res.History); err != nil {
			log.Error("[sheets] push failed", "err", err)
			rep.SheetsErr = err
		}
	} else {
		log.Debug("[sheets] disabled; skipping")
	}

	if deps.Notifier != nil {
		if err := deps.Notifier.Notify(ctx, res.Delta, rep.Day); err != nil {
			rep.NotifyErr = err
		}
	}

	return rep, nil
}

func recordRun(ctx context.Context, j Journal, rep Report, res reconcile.Result, runErr error, log *logging.Logger) error {
	if j == nil {
		return nil
	}
	run := store.Run{
		ID:         rep.RunID,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		Observed:   rep.Observed,
		Opened:     rep.Opened,
		Reopened:   rep.Reopened,
		Closed:     rep.Closed,
		Suppressed: rep.Suppressed,
		Failures:   rep.Failures,
		Status:     store.RunOK,
	}
	var trs []store.Transition
	if runErr != nil {
		run.Status = store.RunFailed
		run.Error = runErr.Error()
	} else {
		trs = Transitions(res, rep.Day)
	}
	if _, err := j.RecordRun(ctx, run, trs); err != nil {
		log.Error("[journal] record run failed", "err", err)
		return err
	}
	return nil
}

func pruneJournal(ctx context.Context, j Journal, days int, now time.Time, log *logging.Logger) {
	if j == nil || days <= 0 {
		return
	}
	n, err := j.CleanupOldRuns(ctx, now.AddDate(0, 0, -days))
	if err != nil {
		log.Warn("[journal] cleanup failed", "err", err)
		return
	}
	if n > 0 {
		log.Debug("[journal] pruned old runs", "runs", n)
	}
}

// Transitions lists the status changes applied by a reconciliation.
func Transitions(res reconcile.Result, day civil.Date) []store.Transition {
	out := make([]store.Transition, 0, len(res.Opened)+len(res.Reopened)+len(res.Closed))
	add := func(recs []domain.Record, kind string) {
		for _, r := range recs {
			out = append(out, store.Transition{Identifier: r.Identifier, Kind: kind, OnDate: day, Source: r.Source, Title: r.Title})
		}
	}
	add(res.Opened, store.KindOpened)
	add(res.Reopened, store.KindReopened)
	add(res.Closed, store.KindClosed)
	return out
}

// IsLocked reports whether err means another run holds the ledger.
func IsLocked(err error) bool { return errors.Is(err, history.ErrLocked) }
