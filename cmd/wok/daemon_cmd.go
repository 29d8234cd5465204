package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/config"
	"github.com/wok-dev/wok/internal/daemon"
	"github.com/wok-dev/wok/internal/router"
	"github.com/wok-dev/wok/internal/rpc"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Control the user-level daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon if it is not already running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stateDir, err := config.ResolveStateDir()
		if err != nil {
			return err
		}
		client, err := daemon.EnsureRunning(stateDir, router.ProtocolVersion)
		if err != nil {
			return fmt.Errorf("daemon start: %w", err)
		}
		defer client.Close()
		status, err := client.Status()
		if err != nil {
			return err
		}
		fmt.Printf("daemon running: pid=%d version=%s db=%s\n", status.PID, status.Version, status.DBPath)
		return nil
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask the running daemon to shut down",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stateDir, err := config.ResolveStateDir()
		if err != nil {
			return err
		}
		client, err := daemon.Connect(stateDir, router.ProtocolVersion, 2*time.Second)
		if err != nil {
			fmt.Println("daemon not running")
			return nil
		}
		defer client.Close()
		if err := client.Shutdown(); err != nil {
			return fmt.Errorf("daemon stop: %w", err)
		}
		fmt.Println("daemon stopped")
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stateDir, err := config.ResolveStateDir()
		if err != nil {
			return err
		}
		client, err := daemon.Connect(stateDir, router.ProtocolVersion, 2*time.Second)
		if err != nil {
			var mismatch *rpc.VersionMismatchError
			if errors.As(err, &mismatch) {
				fmt.Printf("daemon running with incompatible version: daemon=%s client=%s\n", mismatch.Daemon, mismatch.Client)
				return nil
			}
			fmt.Println("daemon not running")
			return nil
		}
		defer client.Close()
		status, err := client.Status()
		if err != nil {
			return err
		}
		fmt.Printf("pid=%d version=%s db=%s\n", status.PID, status.Version, status.DBPath)
		return nil
	},
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonStatusCmd)
	rootCmd.AddCommand(daemonCmd)
}
