//go:build unix

// Package procwatch checks whether a recorded PID still names a live
// process, the liveness probe stale-socket recovery relies on.
package procwatch

import "syscall"

// Alive reports whether pid names a running process. EPERM is treated
// as alive: the process exists but we lack permission to signal it,
// which happens for PIDs owned by another user in sandboxed setups.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil || err == syscall.EPERM {
		return true
	}
	return false
}
