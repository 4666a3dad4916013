// Package retry runs an operation under a bounded exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	gax "github.com/googleapis/gax-go/v2"

	"jobwatch/internal/config"
)

type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}

func FromConfig(rc config.RetryConfig) Policy {
	return Policy{
		MaxAttempts: rc.MaxAttempts,
		Initial:     time.Duration(rc.InitialSeconds * float64(time.Second)),
		Max:         time.Duration(rc.MaxSeconds * float64(time.Second)),
		Multiplier:  rc.Multiplier,
	}
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

func IsPermanent(err error) bool {
	var p permanent
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a permanent error, the context ends
// or MaxAttempts is reached. The returned error wraps the last failure.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	bo := gax.Backoff{Initial: p.Initial, Max: p.Max, Multiplier: p.Multiplier}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		var perm permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		if i == attempts {
			break
		}
		t := time.NewTimer(bo.Pause())
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry aborted after %d attempt(s): %w", i, ctx.Err())
		case <-t.C:
		}
	}
	return fmt.Errorf("giving up after %d attempt(s): %w", attempts, err)
}
