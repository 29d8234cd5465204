package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Add or remove labels on an issue",
}

var labelAddCmd = &cobra.Command{
	Use:   "add <id> <label>",
	Short: "Add a label",
	Args:  cobra.ExactArgs(2),
	RunE:  mutateLabel(func(id, label string) op.Payload { return op.NewAddLabel(id, label) }),
}

var labelRemoveCmd = &cobra.Command{
	Use:   "remove <id> <label>",
	Short: "Remove a label",
	Args:  cobra.ExactArgs(2),
	RunE:  mutateLabel(func(id, label string) op.Payload { return op.NewRemoveLabel(id, label) }),
}

func mutateLabel(build func(id, label string) op.Payload) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
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

		outcome, _, err := h.Mutate(context.Background(), build(issue.ID, args[1]))
		if err != nil {
			return err
		}
		if outcome.Kind == merge.KindRejected && outcome.Err != nil {
			return outcome.Err
		}
		return nil
	}
}

func init() {
	labelCmd.AddCommand(labelAddCmd, labelRemoveCmd)
	rootCmd.AddCommand(labelCmd)
}
