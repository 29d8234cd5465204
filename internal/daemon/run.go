package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/rpc"
	"github.com/wok-dev/wok/internal/wlog"
)

// Run prints READY (so a spawning CLI can detect startup) and enters
// the event loop: accepted connections are handled on short-lived
// goroutines, but Mutate calls are serialized through a mutex so there
// is exactly one writer to the database at a time. Reads run
// unserialized, relying on the database's own WAL-mode
// concurrent-reader support. Run blocks until SIGTERM/SIGINT or a
// client Shutdown request, then tears the daemon down and returns.
func (d *Daemon) Run(ready *os.File) error {
	if ready != nil {
		fmt.Fprintln(ready, "READY")
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	connCh := make(chan net.Conn)
	acceptErrCh := make(chan error, 1)
	go func() {
		for {
			conn, err := d.listener.Accept()
			if err != nil {
				acceptErrCh <- err
				return
			}
			connCh <- conn
		}
	}()

	h := &handler{d: d}
	var wg sync.WaitGroup
	var writeMu sync.Mutex
	shutdownRequested := make(chan struct{})
	var once sync.Once

	for {
		select {
		case sig := <-sigCh:
			d.logger.Info("signal received, stopping", wlog.Component("daemon"), slog.String("signal", sig.String()))
			_ = d.listener.Close()
			d.waitOrForceExit(&wg, sigCh)
			return d.Shutdown()

		case <-shutdownRequested:
			_ = d.listener.Close()
			wg.Wait()
			return d.Shutdown()

		case err := <-acceptErrCh:
			wg.Wait()
			if isClosedErr(err) {
				return nil
			}
			return fmt.Errorf("daemon: accept: %w", err)

		case conn := <-connCh:
			wg.Add(1)
			go func(c net.Conn) {
				defer wg.Done()
				defer c.Close()
				stop := d.serveMutexed(c, h, &writeMu)
				if stop {
					once.Do(func() { close(shutdownRequested) })
				}
			}(conn)
		}
	}
}

// waitOrForceExit waits for in-flight connections to drain after a
// first SIGTERM/SIGINT, but a second signal during the drain forces an
// immediate exit instead of leaving the operator to reach for SIGKILL.
func (d *Daemon) waitOrForceExit(wg *sync.WaitGroup, sigCh <-chan os.Signal) {
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case sig := <-sigCh:
		d.logger.Warn("second signal received, forcing exit", wlog.Component("daemon"), slog.String("signal", sig.String()))
		removeStateFiles(d.Paths)
		os.Exit(1)
	}
}

// serveMutexed runs one connection's request/response exchange,
// holding writeMu only around the (rare) Mutate call so concurrent
// reads are never blocked behind it.
func (d *Daemon) serveMutexed(conn net.Conn, h *handler, writeMu *sync.Mutex) (shutdown bool) {
	guarded := &mutexGuardedHandler{inner: h, mu: writeMu}
	stop, err := rpc.ServeConn(conn, d.Version, guarded)
	if err != nil {
		d.logger.Warn("connection error", wlog.Component("rpc"), slog.String("err", err.Error()))
	}
	return stop
}

// mutexGuardedHandler serializes Mutate across connections while
// leaving Query/Status free to run concurrently.
type mutexGuardedHandler struct {
	inner *handler
	mu    *sync.Mutex
}

func (g *mutexGuardedHandler) Status() *rpc.StatusResp { return g.inner.Status() }

func (g *mutexGuardedHandler) Query(tag rpc.QueryTag) (rpc.QueryResultPayload, error) {
	return g.inner.Query(tag)
}

func (g *mutexGuardedHandler) Mutate(o op.Op) (*rpc.MutateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.Mutate(o)
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
