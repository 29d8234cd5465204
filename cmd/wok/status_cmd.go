package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/types"
)

var statusReason string

var statusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set an issue's status (todo, in_progress, done, closed)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		newStatus := types.Status(args[1])
		if !newStatus.Valid() {
			return fmt.Errorf("invalid status %q", args[1])
		}

		h, err := openHandle()
		if err != nil {
			return err
		}
		defer h.Close()

		issue, err := h.GetIssue(context.Background(), args[0])
		if err != nil {
			return err
		}
		if issue == nil {
			return fmt.Errorf("issue %s not found", args[0])
		}

		var reason *string
		if cmd.Flags().Changed("reason") {
			reason = &statusReason
		}
		outcome, _, err := h.Mutate(context.Background(), op.NewSetStatus(issue.ID, args[1], reason))
		if err != nil {
			return err
		}
		if outcome.Kind == merge.KindRejected && outcome.Err != nil {
			return outcome.Err
		}
		fmt.Println(issue.ID)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusReason, "reason", "", "reason for the transition")
	rootCmd.AddCommand(statusCmd)
}
