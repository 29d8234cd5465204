//go:build unix

package lockfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// AcquireExclusive attempts a non-blocking exclusive flock on f. It
// returns ErrLocked (not a raw errno) when another process already
// holds the lock, so callers can test with errors.Is.
func AcquireExclusive(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrLocked
	}
	return err
}

// Release drops the advisory lock held on f.
func Release(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
