// Package reconcile diffs one run's observations against the history ledger.
//
// Reconcile is a pure function of (history, snapshot, today, options). It never
// performs I/O and never fails: malformed postings are reported in
// Result.Rejected and the rest of the run proceeds.
package reconcile

import (
	"strings"

	"cloud.google.com/go/civil"

	"jobwatch/internal/domain"
)

// ReopenPolicy decides what happens to opened_on when a closed posting comes back.
type ReopenPolicy int

const (
	// ResetOpenedOn restarts the openness clock at the reopening date.
	ResetOpenedOn ReopenPolicy = iota
	// PreserveOpenedOn keeps the date the posting was first seen.
	PreserveOpenedOn
)

func ParseReopenPolicy(s string) (ReopenPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reset":
		return ResetOpenedOn, true
	case "preserve":
		return PreserveOpenedOn, true
	}
	return ResetOpenedOn, false
}

type Options struct {
	ReopenPolicy ReopenPolicy

	// SuppressClosures skips the closure pass entirely. Closure candidates are
	// still reported in Result.Suppressed.
	SuppressClosures bool

	// ProtectedSources are sources whose open records must not be closed this
	// run, typically because every fetch against them failed.
	ProtectedSources map[string]bool
}

type Result struct {
	// History is the new ledger: input order, new records appended in snapshot order.
	History []domain.Record
	// Delta holds the opened and reopened records in snapshot order.
	Delta []domain.Record

	Opened   []domain.Record
	Reopened []domain.Record
	Closed   []domain.Record
	// Suppressed are closure candidates held back by Options.
	Suppressed []domain.Record

	Rejected          []domain.Posting
	DuplicateSnapshot []domain.Posting
	DuplicateHistory  []domain.Record
}

// Reconcile computes the new history and the notification delta.
func Reconcile(history []domain.Record, snapshot []domain.Posting, today civil.Date, opts Options) Result {
	var res Result

	postings, rejected, dupes := DedupeSnapshot(snapshot)
	res.Rejected = rejected
	res.DuplicateSnapshot = dupes

	out, dupHist := dedupeHistory(history)
	res.DuplicateHistory = dupHist

	index := make(map[string]int, len(out))
	open := make(map[string]bool, len(out))
	for i, r := range out {
		index[r.Identifier] = i
		if r.Status.IsOpen() {
			open[r.Identifier] = true
		}
	}

	observed := make(map[string]bool, len(postings))
	for _, p := range postings {
		observed[p.Identifier] = true
	}

	// newly observed: not in the open set at the start of the run
	for _, p := range postings {
		if open[p.Identifier] {
			continue
		}
		if i, ok := index[p.Identifier]; ok {
			r := out[i]
			r.Status = domain.StatusReopened
			r.ClosedOn = domain.NoDate
			if opts.ReopenPolicy == ResetOpenedOn {
				r.OpenedOn = today
			}
			out[i] = r
			res.Reopened = append(res.Reopened, r)
			res.Delta = append(res.Delta, r)
			continue
		}
		r := domain.FromPosting(p, today)
		index[r.Identifier] = len(out)
		out = append(out, r)
		res.Opened = append(res.Opened, r)
		res.Delta = append(res.Delta, r)
	}

	// disappeared: open at the start of the run, absent now
	for i, r := range out {
		if !open[r.Identifier] || observed[r.Identifier] {
			continue
		}
		if opts.SuppressClosures || opts.ProtectedSources[r.Source] {
			res.Suppressed = append(res.Suppressed, r)
			continue
		}
		r.Status = domain.StatusClosed
		r.ClosedOn = today
		out[i] = r
		res.Closed = append(res.Closed, r)
	}

	res.History = out
	return res
}

// ClosureCandidates returns the open history records that the snapshot does
// not contain, without computing anything else.
func ClosureCandidates(history []domain.Record, snapshot []domain.Posting) []domain.Record {
	postings, _, _ := DedupeSnapshot(snapshot)
	observed := make(map[string]bool, len(postings))
	for _, p := range postings {
		observed[p.Identifier] = true
	}
	recs, _ := dedupeHistory(history)
	var out []domain.Record
	for _, r := range recs {
		if r.Status.IsOpen() && !observed[r.Identifier] {
			out = append(out, r)
		}
	}
	return out
}

// DedupeSnapshot keeps the first posting per identifier. Postings without an
// identifier are rejected.
func DedupeSnapshot(snapshot []domain.Posting) (kept, rejected, duplicates []domain.Posting) {
	seen := make(map[string]bool, len(snapshot))
	for _, p := range snapshot {
		p.Identifier = strings.TrimSpace(p.Identifier)
		if p.Identifier == "" {
			rejected = append(rejected, p)
			continue
		}
		if seen[p.Identifier] {
			duplicates = append(duplicates, p)
			continue
		}
		seen[p.Identifier] = true
		kept = append(kept, p)
	}
	return kept, rejected, duplicates
}

// dedupeHistory copies history, keeping the first record per identifier.
func dedupeHistory(history []domain.Record) (kept, duplicates []domain.Record) {
	kept = make([]domain.Record, 0, len(history))
	seen := make(map[string]bool, len(history))
	for _, r := range history {
		if seen[r.Identifier] {
			duplicates = append(duplicates, r)
			continue
		}
		seen[r.Identifier] = true
		kept = append(kept, r)
	}
	return kept, duplicates
}
