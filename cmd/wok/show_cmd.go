package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one issue",
	Args:  cobra.ExactArgs(1),
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

		fmt.Printf("%s  %s  [%s]\n", issue.ID, issue.Title, issue.Status)
		fmt.Printf("type:     %s\n", issue.Type)
		if issue.Assignee != nil {
			fmt.Printf("assignee: %s\n", *issue.Assignee)
		}
		if issue.Description != nil {
			fmt.Printf("\n%s\n", *issue.Description)
		}

		labels, err := h.GetLabelsBatch(context.Background(), []string{issue.ID})
		if err != nil {
			return err
		}
		if ls := labels[issue.ID]; len(ls) > 0 {
			fmt.Printf("labels:   %v\n", ls)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
