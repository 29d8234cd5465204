// Command wok is the CLI entry point: it resolves the operating mode
// (private vs. user-level) and drives the tracker through one
// router.Handle per invocation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the CLI version string. It carries the same value as the
// protocol version, but the handshake itself sends router.ProtocolVersion.
const Version = "1"

var rootCmd = &cobra.Command{
	Use:   "wok",
	Short: "wok - an offline-first, CRDT-replicated issue tracker",
	Long:  "wok tracks issues locally and converges across replicas through an HLC-stamped operation log.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
