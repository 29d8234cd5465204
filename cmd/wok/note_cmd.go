package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
)

var noteCmd = &cobra.Command{
	Use:   "note <id> <content>",
	Short: "Append a note to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		outcome, _, err := h.Mutate(context.Background(), op.NewAddNote(issue.ID, issue.Status, args[1]))
		if err != nil {
			return err
		}
		if outcome.Kind == merge.KindRejected && outcome.Err != nil {
			return outcome.Err
		}
		if outcome.Kind == merge.KindDiscarded {
			return fmt.Errorf("note dropped: %s", outcome.Reason)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
}
