package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/storage"
)

var (
	listStatus   string
	listType     string
	listAssignee string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle()
		if err != nil {
			return err
		}
		defer h.Close()

		issues, err := h.ListIssues(context.Background(), storage.ListFilter{
			Status:   listStatus,
			Type:     listType,
			Assignee: listAssignee,
		})
		if err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Printf("%s  %-6s  %-11s  %s\n", issue.ID, issue.Type, issue.Status, issue.Title)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&listType, "type", "", "filter by type")
	listCmd.Flags().StringVar(&listAssignee, "assignee", "", "filter by assignee")
	rootCmd.AddCommand(listCmd)
}
