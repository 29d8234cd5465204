package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/idgen"
	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/types"
)

var createType string

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issueType := types.IssueType(createType)
		if !issueType.Valid() {
			return fmt.Errorf("invalid type %q", createType)
		}

		h, err := openHandle()
		if err != nil {
			return err
		}
		defer h.Close()

		id := idgen.NewIssueID(h.Prefix(), args[0], time.Now(), 0)
		outcome, _, err := h.Mutate(context.Background(), op.NewCreateIssue(id, string(issueType), args[0]))
		if err != nil {
			return err
		}
		if outcome.Kind == merge.KindRejected && outcome.Err != nil {
			return outcome.Err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createType, "type", string(types.IssueTypeTask), "issue type: feature, task, bug, chore")
	rootCmd.AddCommand(createCmd)
}
