package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/wok-dev/wok/internal/procwatch"
	"github.com/wok-dev/wok/internal/rpc"
)

// ReadyTimeout bounds how long EnsureRunning waits for a spawned
// daemon to print READY.
const ReadyTimeout = 10 * time.Second

// ErrStartupTimeout is returned when a spawned daemon does not print
// READY within ReadyTimeout.
var ErrStartupTimeout = errors.New("daemon: startup timed out")

// Connect dials the daemon socket and completes the Hello handshake.
// A *rpc.VersionMismatchError means the daemon is alive but running a
// different protocol version.
func Connect(stateDir, clientVersion string, timeout time.Duration) (*rpc.Client, error) {
	paths := NewPaths(stateDir)
	return rpc.Dial(paths.Socket(), clientVersion, timeout)
}

// EnsureRunning implements the client-side recovery flow: it tries to
// connect; on failure it checks whether the recorded PID is stale,
// cleans up state files if so, spawns the daemon, waits for READY,
// then connects and handshakes. On a version mismatch it asks the
// running daemon to shut down and spawns a fresh one.
func EnsureRunning(stateDir, clientVersion string) (*rpc.Client, error) {
	paths := NewPaths(stateDir)

	client, err := Connect(stateDir, clientVersion, 2*time.Second)
	if err == nil {
		return client, nil
	}

	var mismatch *rpc.VersionMismatchError
	if errors.As(err, &mismatch) {
		_ = client.Shutdown()
		client.Close()
		if err := waitForExit(paths, ReadyTimeout); err != nil {
			return nil, err
		}
		return spawnAndConnect(paths, clientVersion)
	}

	if pid, pidErr := readPID(paths.PID()); pidErr == nil && pid != 0 && !procwatch.Alive(pid) {
		removeStateFiles(paths)
	}

	return spawnAndConnect(paths, clientVersion)
}

// waitForExit polls daemon.pid until its recorded owner is no longer
// alive, bounded by an exponential backoff.
func waitForExit(paths Paths, timeout time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 25 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = timeout

	err := backoff.Retry(func() error {
		pid, pidErr := readPID(paths.PID())
		if pidErr != nil || pid == 0 || !procwatch.Alive(pid) {
			return nil
		}
		return fmt.Errorf("daemon: previous owner (pid %d) still alive", pid)
	}, bo)
	if err != nil {
		return ErrStartupTimeout
	}
	return nil
}

// ResolveBinary locates the daemon executable: the WOK_DAEMON_BINARY
// env override, then a sibling of the running client binary, then PATH.
func ResolveBinary() (string, error) {
	if v := os.Getenv("WOK_DAEMON_BINARY"); v != "" {
		return v, nil
	}

	name := "wok-daemon"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), name)
		if _, statErr := os.Stat(sibling); statErr == nil {
			return sibling, nil
		}
	}

	return exec.LookPath(name)
}

// spawnAndConnect starts the daemon binary, waits for it to print
// READY on stdout, and completes the client handshake. On timeout it
// scrapes daemon.log since the startup marker and surfaces ERROR lines.
func spawnAndConnect(paths Paths, clientVersion string) (*rpc.Client, error) {
	bin, err := ResolveBinary()
	if err != nil {
		return nil, fmt.Errorf("daemon: resolve daemon binary: %w", err)
	}

	cmd := exec.Command(bin, "--state-dir", paths.Dir)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("daemon: spawn: %w", err)
	}
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("daemon: spawn %s: %w", bin, err)
	}

	readyCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) == "READY" {
				readyCh <- nil
				return
			}
		}
		readyCh <- fmt.Errorf("daemon: stdout closed before READY")
	}()

	select {
	case err := <-readyCh:
		if err != nil {
			return nil, errorWithLogTail(paths, err)
		}
	case <-time.After(ReadyTimeout):
		return nil, errorWithLogTail(paths, ErrStartupTimeout)
	}

	return rpc.Dial(paths.Socket(), clientVersion, ReadyTimeout)
}

// errorWithLogTail scrapes daemon.log since the most recent startup
// marker and appends any ERROR lines found, so a failed spawn surfaces
// an actionable diagnostic.
func errorWithLogTail(paths Paths, cause error) error {
	tail, err := logTailSinceLastStart(paths.Log())
	if err != nil || tail == "" {
		return cause
	}
	return fmt.Errorf("%w:\n%s", cause, tail)
}

func logTailSinceLastStart(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(data), "\n")

	start := 0
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "--- daemon: starting") {
			start = i
			break
		}
	}

	var errLines []string
	for _, line := range lines[start:] {
		if strings.Contains(line, "ERROR") {
			errLines = append(errLines, line)
		}
	}
	return strings.Join(errLines, "\n"), nil
}
