package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/types"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Add or remove a dependency between issues",
}

var depAddCmd = &cobra.Command{
	Use:   "add <from> <to> <rel>",
	Short: "Add a dependency (rel: blocks, tracks, tracked-by)",
	Args:  cobra.ExactArgs(3),
	RunE:  mutateDep(func(from, to string, rel op.Rel) op.Payload { return op.NewAddDep(from, to, rel) }),
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <from> <to> <rel>",
	Short: "Remove a dependency",
	Args:  cobra.ExactArgs(3),
	RunE:  mutateDep(func(from, to string, rel op.Rel) op.Payload { return op.NewRemoveDep(from, to, rel) }),
}

func mutateDep(build func(from, to string, rel op.Rel) op.Payload) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rel := types.Rel(args[2])
		if !rel.Valid() {
			return fmt.Errorf("invalid rel %q", args[2])
		}

		h, err := openHandle()
		if err != nil {
			return err
		}
		defer h.Close()

		from, err := h.GetIssue(context.Background(), args[0])
		if err != nil {
			return err
		}
		if from == nil {
			return fmt.Errorf("issue %s not found", args[0])
		}
		to, err := h.GetIssue(context.Background(), args[1])
		if err != nil {
			return err
		}
		if to == nil {
			return fmt.Errorf("issue %s not found", args[1])
		}

		outcome, _, err := h.Mutate(context.Background(), build(from.ID, to.ID, op.Rel(rel)))
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
	depCmd.AddCommand(depAddCmd, depRemoveCmd)
	rootCmd.AddCommand(depCmd)
}
