// Package lock serializes bridge instances with a cross-process file lock.
package lock

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrHeld means another telclaude process owns the lock.
var ErrHeld = errors.New("another instance is already running")

// Acquire takes an exclusive non-blocking lock on path. The returned release
// function unlocks and must be called at shutdown.
func Acquire(path string) (func(), error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return func() { _ = fl.Unlock() }, nil
}
