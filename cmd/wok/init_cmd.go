package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/config"
)

var initPrivate bool

var initCmd = &cobra.Command{
	Use:   "init <prefix>",
	Short: "Initialize a project in the current directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg := &config.Config{Prefix: args[0], Private: initPrivate}
		if err := config.Save(dir, cfg); err != nil {
			return err
		}
		fmt.Printf("initialized %s (prefix=%s, private=%v)\n", dir, cfg.Prefix, cfg.Private)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initPrivate, "private", false, "use a project-local database instead of the user-level daemon")
	rootCmd.AddCommand(initCmd)
}
