package types

import (
	"context"
	"errors"

	"jobwatch/internal/domain"
)

// ErrNoListing means the page had neither a job list nor an empty-result
// marker, so nothing can be concluded about the board.
var ErrNoListing = errors.New("no job listing found on page")

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, src domain.Source, term string) ([]domain.Posting, error)
}

// Renderer turns a URL into page HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Snapshot is everything observed in one run.
type Snapshot struct {
	Postings []domain.Posting
	// Attempts and Failures count (source, term) fetches per source name.
	Attempts map[string]int
	Failures map[string]int
}

// FailedSources lists the sources with at least one failed fetch. A single
// failed term leaves that source's snapshot incomplete.
func (s Snapshot) FailedSources() []string {
	var out []string
	for name, n := range s.Failures {
		if n > 0 {
			out = append(out, name)
		}
	}
	return out
}

func (s Snapshot) TotalFailures() int {
	n := 0
	for _, f := range s.Failures {
		n += f
	}
	return n
}
