package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/config"
	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/router"
)

var renamePrefixCmd = &cobra.Command{
	Use:   "rename-prefix <old> <new>",
	Short: "Rename every issue id's prefix in one transaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle()
		if err != nil {
			return err
		}
		defer h.Close()

		outcome, _, err := h.Mutate(context.Background(), op.NewRenamePrefix(args[0], args[1]))
		if err != nil {
			return err
		}
		if outcome.Kind == merge.KindRejected && outcome.Err != nil {
			return outcome.Err
		}

		if h.Prefix() == args[0] {
			cfg := &config.Config{Prefix: args[1], Private: h.Mode() == router.ModePrivate}
			if err := config.Save(h.WorkDir(), cfg); err != nil {
				return fmt.Errorf("rename-prefix: update config.toml: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renamePrefixCmd)
}
