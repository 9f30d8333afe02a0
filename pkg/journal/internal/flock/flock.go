// Package flock provides an exclusive, non-blocking advisory file lock.
//
// It wraps golang.org/x/sys/unix.Flock rather than the syscall package so
// that the lock call is portable across the BSD/Linux flock semantics
// x/sys normalizes, and so process-level file locking lives behind one
// narrow seam the rest of the journal engine doesn't need to know about.
package flock

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock indicates the lock is already held by another open file
// description (in this process or another).
var ErrWouldBlock = errors.New("flock: would block")

// Lock holds an acquired advisory lock on a file descriptor.
type Lock struct {
	fd int
}

// TryLock attempts to acquire an exclusive, non-blocking advisory lock on
// fd. It returns [ErrWouldBlock] if the lock is already held.
func TryLock(fd int) (*Lock, error) {
	err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrWouldBlock
		}

		return nil, fmt.Errorf("flock: %w", err)
	}

	return &Lock{fd: fd}, nil
}

// Unlock releases the lock. Safe to call on nil.
func (l *Lock) Unlock() error {
	if l == nil {
		return nil
	}

	return unix.Flock(l.fd, unix.LOCK_UN)
}
