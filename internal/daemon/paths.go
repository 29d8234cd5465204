// Package daemon implements the lifecycle of the long-lived, single-owner
// process that serializes all access to the shared user-level database:
// the lock/pid/socket/version files in the state directory, stale-socket
// recovery, the READY handshake, and graceful shutdown.
package daemon

import "path/filepath"

// Paths names every file the daemon owns inside one state directory.
type Paths struct {
	Dir string
}

func NewPaths(stateDir string) Paths { return Paths{Dir: stateDir} }

func (p Paths) Socket() string  { return filepath.Join(p.Dir, "daemon.sock") }
func (p Paths) PID() string     { return filepath.Join(p.Dir, "daemon.pid") }
func (p Paths) Lock() string    { return filepath.Join(p.Dir, "daemon.lock") }
func (p Paths) Version() string { return filepath.Join(p.Dir, "daemon.version") }
func (p Paths) Log() string     { return filepath.Join(p.Dir, "daemon.log") }
func (p Paths) DB() string      { return filepath.Join(p.Dir, "issues.db") }

// OpLog is this replica's append-only operation log, distinct from
// daemon.log (the tracing output named by Log).
func (p Paths) OpLog() string { return filepath.Join(p.Dir, "oplog.jsonl") }
