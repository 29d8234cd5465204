package daemon

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/oplog"
	"github.com/wok-dev/wok/internal/storage"
)

// Daemon owns the shared database, the op log, and the HLC clock for
// the lifetime of the process. It is the sole mutator of the database
// in user-level mode.
type Daemon struct {
	Paths   Paths
	Version string

	pid      int
	lockFile *os.File
	listener net.Listener
	store    *storage.Storage
	log      *oplog.Log
	clock    *hlc.Clock
	logger   *slog.Logger
}

// writeFile writes content to path, creating or truncating it, then
// closes the handle. Used for the small, single-write state files
// (pid, version) that don't need fsync beyond the OS page cache.
func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// readPID reads and parses daemon.pid; returns 0, nil if the file is
// absent.
func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("daemon: parse %s: %w", path, err)
	}
	return pid, nil
}

// removeStateFiles unlinks the socket/pid/version triple, ignoring
// not-exist errors.
func removeStateFiles(p Paths) {
	for _, f := range []string{p.Socket(), p.PID(), p.Version()} {
		_ = os.Remove(f)
	}
}

// isSocket reports whether the file at path is a Unix domain socket.
func isSocket(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSocket != 0
}
