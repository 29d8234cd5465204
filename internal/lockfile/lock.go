// Package lockfile provides the advisory exclusive lock that guarantees
// at most one daemon owns a state directory at a time.
package lockfile

import "errors"

// ErrLocked is returned by AcquireExclusive when another process already
// holds the lock. The daemon treats this as benign: it exits 0 rather
// than surfacing an error.
var ErrLocked = errors.New("lockfile: already held by another process")
