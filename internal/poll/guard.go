package poll

import (
	"fmt"

	"jobwatch/internal/config"
	"jobwatch/internal/domain"
	"jobwatch/internal/scrape/types"
)

// GuardDecision is the closure policy for one run.
type GuardDecision struct {
	SuppressClosures bool
	Reason           string
	Protected        map[string]bool
}

// Guard decides whether this run's snapshot can be trusted to close postings.
// An empty or implausibly small snapshot usually means the boards could not
// be read, not that every posting closed.
func Guard(cfg config.Config, history []domain.Record, snap types.Snapshot) GuardDecision {
	var d GuardDecision

	open := 0
	for _, r := range history {
		if r.Status.IsOpen() {
			open++
		}
	}

	switch {
	case open == 0:
	case len(snap.Postings) == 0:
		if !cfg.Guard.AllowEmptySnapshot {
			d.SuppressClosures = true
			d.Reason = fmt.Sprintf("empty snapshot with %d open postings", open)
		}
	case cfg.Guard.MinSnapshotRatio > 0 && float64(len(snap.Postings)) < cfg.Guard.MinSnapshotRatio*float64(open):
		d.SuppressClosures = true
		d.Reason = fmt.Sprintf("snapshot of %d postings is below %.2f of %d open postings",
			len(snap.Postings), cfg.Guard.MinSnapshotRatio, open)
	}

	if cfg.Guard.ProtectFailedSources {
		for _, name := range snap.FailedSources() {
			if d.Protected == nil {
				d.Protected = make(map[string]bool)
			}
			d.Protected[name] = true
		}
	}
	return d
}
