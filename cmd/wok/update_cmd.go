package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/types"
)

var (
	updateTitle       string
	updateType        string
	updateAssignee    string
	updateDescription string
	updateUnassign    bool
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update title, type, assignee, or description on an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle()
		if err != nil {
			return err
		}
		defer h.Close()

		id, err := h.GetIssue(context.Background(), args[0])
		if err != nil {
			return err
		}
		if id == nil {
			return fmt.Errorf("issue %s not found", args[0])
		}
		resolved := id.ID

		var payloads []op.Payload
		if cmd.Flags().Changed("title") {
			payloads = append(payloads, op.NewSetTitle(resolved, updateTitle))
		}
		if cmd.Flags().Changed("type") {
			issueType := types.IssueType(updateType)
			if !issueType.Valid() {
				return fmt.Errorf("invalid type %q", updateType)
			}
			payloads = append(payloads, op.NewSetType(resolved, updateType))
		}
		if updateUnassign {
			payloads = append(payloads, op.NewSetAssignee(resolved, nil))
		} else if cmd.Flags().Changed("assignee") {
			payloads = append(payloads, op.NewSetAssignee(resolved, &updateAssignee))
		}
		if cmd.Flags().Changed("description") {
			payloads = append(payloads, op.NewSetDescription(resolved, &updateDescription))
		}
		if len(payloads) == 0 {
			return fmt.Errorf("no fields given to update")
		}

		for _, p := range payloads {
			outcome, _, err := h.Mutate(context.Background(), p)
			if err != nil {
				return err
			}
			if outcome.Kind == merge.KindRejected && outcome.Err != nil {
				return outcome.Err
			}
		}
		fmt.Println(resolved)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateType, "type", "", "new type: feature, task, bug, chore")
	updateCmd.Flags().StringVar(&updateAssignee, "assignee", "", "new assignee")
	updateCmd.Flags().BoolVar(&updateUnassign, "unassign", false, "clear the assignee")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "new description")
	rootCmd.AddCommand(updateCmd)
}
