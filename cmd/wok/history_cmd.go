package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show the event trail recorded against an issue",
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

		events, err := h.GetEvents(context.Background(), issue.ID)
		if err != nil {
			return err
		}
		for _, e := range events {
			when := time.UnixMilli(e.CreatedAt).UTC().Format(time.RFC3339)
			if e.Detail != "" {
				fmt.Printf("%s  %-16s %s\n", when, e.Kind, e.Detail)
			} else {
				fmt.Printf("%s  %s\n", when, e.Kind)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
