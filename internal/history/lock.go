package history

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("history is locked by another run")

// Lock takes an exclusive advisory lock next to the ledger. It fails fast
// with ErrLocked when another process holds it.
func Lock(path string) (*flock.Flock, error) {
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock history: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl, nil
}
