package daemon

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/lockfile"
	"github.com/wok-dev/wok/internal/nodeid"
	"github.com/wok-dev/wok/internal/oplog"
	"github.com/wok-dev/wok/internal/procwatch"
	"github.com/wok-dev/wok/internal/storage"
	"github.com/wok-dev/wok/internal/wlog"
)

// ErrAlreadyRunning is returned by Start when another process already
// holds daemon.lock. The caller is expected to treat this as benign
// and exit 0, not report an error.
var ErrAlreadyRunning = lockfile.ErrLocked

// Start runs the server-side startup sequence: create the state
// directory, write the log startup marker, acquire the exclusive lock,
// persist version/pid, open the database, construct the clock, and
// bind the socket (recovering a stale one if present). It does not
// enter the event loop; call Run for that, then Shutdown.
func Start(stateDir, version string) (*Daemon, error) {
	paths := NewPaths(stateDir)
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("daemon: create state dir %s: %w", paths.Dir, err)
	}

	logFile, err := os.OpenFile(paths.Log(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("daemon: open log %s: %w", paths.Log(), err)
	}
	pid := os.Getpid()
	if err := wlog.WriteStartupMarker(logFile, pid); err != nil {
		logFile.Close()
		return nil, err
	}
	logger := wlog.New(logFile, slog.LevelInfo)

	lockHandle, err := os.OpenFile(paths.Lock(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("daemon: open lock %s: %w", paths.Lock(), err)
	}
	if err := lockfile.AcquireExclusive(lockHandle); err != nil {
		lockHandle.Close()
		logFile.Close()
		return nil, err // ErrLocked: another daemon owns this state dir
	}

	// Capture whatever daemon.pid held before it is overwritten below:
	// stale-socket recovery needs the crashed predecessor's pid, not
	// this process's own.
	priorPID, priorPIDErr := readPID(paths.PID())

	if err := writeFile(paths.Version(), version+"\n"); err != nil {
		return nil, releaseAndWrap(lockHandle, logFile, "daemon: write version", err)
	}
	if err := writeFile(paths.PID(), fmt.Sprintf("%d\n", pid)); err != nil {
		return nil, releaseAndWrap(lockHandle, logFile, "daemon: write pid", err)
	}

	store, err := storage.Open(paths.DB())
	if err != nil {
		return nil, releaseAndWrap(lockHandle, logFile, "daemon: open database", err)
	}

	log, err := oplog.Open(paths.OpLog())
	if err != nil {
		store.Close()
		return nil, releaseAndWrap(lockHandle, logFile, "daemon: open op log", err)
	}

	node := nodeid.FromPath(paths.Dir)
	clock := hlc.New(node)

	listener, err := bindSocket(paths, priorPID, priorPIDErr)
	if err != nil {
		log.Close()
		store.Close()
		return nil, releaseAndWrap(lockHandle, logFile, "daemon: bind socket", err)
	}

	logger.Info("daemon started", wlog.Component("daemon"), slog.Int("pid", pid), slog.String("socket", paths.Socket()))

	return &Daemon{
		Paths:    paths,
		Version:  version,
		pid:      pid,
		lockFile: lockHandle,
		listener: listener,
		store:    store,
		log:      log,
		clock:    clock,
		logger:   logger,
	}, nil
}

func releaseAndWrap(lockHandle, logFile *os.File, msg string, err error) error {
	_ = lockfile.Release(lockHandle)
	lockHandle.Close()
	logFile.Close()
	return fmt.Errorf("%s: %w", msg, err)
}

// bindSocket binds daemon.sock, recovering from a stale socket left by
// a crashed prior daemon: if the path exists, is a socket, and the
// predecessor pid recorded before this process took over daemon.pid is
// no longer alive, it is unlinked and the bind retried once.
func bindSocket(paths Paths, priorPID int, priorPIDErr error) (net.Listener, error) {
	listener, err := net.Listen("unix", paths.Socket())
	if err == nil {
		return listener, nil
	}
	if !isSocket(paths.Socket()) {
		return nil, err
	}

	if priorPIDErr == nil && priorPID != 0 && procwatch.Alive(priorPID) {
		return nil, err // a live owner really is listening; surface the original error
	}

	if rmErr := os.Remove(paths.Socket()); rmErr != nil {
		return nil, fmt.Errorf("daemon: remove stale socket: %w", rmErr)
	}
	return net.Listen("unix", paths.Socket())
}

// Shutdown runs the server-side teardown: flush and close the database,
// unlink the socket/pid/version files, release the lock.
func (d *Daemon) Shutdown() error {
	if d.listener != nil {
		_ = d.listener.Close()
	}
	if d.log != nil {
		_ = d.log.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
	removeStateFiles(d.Paths)
	err := lockfile.Release(d.lockFile)
	d.lockFile.Close()
	d.logger.Info("daemon stopped", wlog.Component("daemon"))
	return err
}
