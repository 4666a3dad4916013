package util

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"jobwatch/internal/domain"
)

// BoardLimiter paces requests per configured board. Every term search, and the
// browser retry of the same page, draws from that board's budget. URLs outside
// the configured boards share one extra budget.
type BoardLimiter struct {
	boards map[string]*rate.Limiter
	other  *rate.Limiter
}

// NewBoardLimiter builds one limiter per distinct board host. The map is
// fixed after construction, so Wait needs no locking.
func NewBoardLimiter(sources []domain.Source, reqPerSec float64, burst int) *BoardLimiter {
	if burst < 1 {
		burst = 1
	}
	bl := &BoardLimiter{
		boards: make(map[string]*rate.Limiter, len(sources)),
		other:  rate.NewLimiter(rate.Limit(reqPerSec), burst),
	}
	for _, s := range sources {
		host := boardHost(s.BaseURL)
		if host == "" {
			continue
		}
		if _, ok := bl.boards[host]; !ok {
			bl.boards[host] = rate.NewLimiter(rate.Limit(reqPerSec), burst)
		}
	}
	return bl
}

// Wait blocks until the board serving raw may be hit again.
func (bl *BoardLimiter) Wait(ctx context.Context, raw string) error {
	if bl == nil {
		return nil
	}
	if lim, ok := bl.boards[boardHost(raw)]; ok {
		return lim.Wait(ctx)
	}
	return bl.other.Wait(ctx)
}

// Boards is the number of distinct board hosts being paced.
func (bl *BoardLimiter) Boards() int {
	if bl == nil {
		return 0
	}
	return len(bl.boards)
}

func boardHost(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
