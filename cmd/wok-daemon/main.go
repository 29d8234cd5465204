// Command wok-daemon is the long-lived, single-owner process that
// serializes all access to the shared user-level database. It is
// spawned by the wok CLI (internal/daemon.EnsureRunning) and is not
// meant to be invoked directly by end users, though it can be for
// debugging via --state-dir.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/wok-dev/wok/internal/config"
	"github.com/wok-dev/wok/internal/daemon"
	"github.com/wok-dev/wok/internal/router"
)

func main() {
	stateDir := flag.String("state-dir", "", "daemon state directory (defaults to WOK_STATE_DIR/XDG resolution)")
	flag.Parse()

	dir := *stateDir
	if dir == "" {
		resolved, err := config.ResolveStateDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "wok-daemon:", err)
			os.Exit(1)
		}
		dir = resolved
	}

	d, err := daemon.Start(dir, router.ProtocolVersion)
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			// Another daemon already owns this state dir.
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "wok-daemon:", err)
		os.Exit(1)
	}

	if err := d.Run(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "wok-daemon:", err)
		os.Exit(1)
	}
}
