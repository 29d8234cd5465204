package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/op"
)

var (
	linkKind       string
	linkExternalID string
	linkRel        string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Add or remove a link on an issue",
}

var linkAddCmd = &cobra.Command{
	Use:   "add <id> <url>",
	Short: "Add a link",
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

		var kind, externalID, rel *string
		if cmd.Flags().Changed("kind") {
			kind = &linkKind
		}
		if cmd.Flags().Changed("external-id") {
			externalID = &linkExternalID
		}
		if cmd.Flags().Changed("rel") {
			rel = &linkRel
		}

		outcome, _, err := h.Mutate(context.Background(), op.NewAddLink(issue.ID, args[1], kind, externalID, rel))
		if err != nil {
			return err
		}
		if outcome.Kind == merge.KindRejected && outcome.Err != nil {
			return outcome.Err
		}
		return nil
	},
}

var linkRemoveCmd = &cobra.Command{
	Use:   "remove <id> <url>",
	Short: "Remove a link",
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

		outcome, _, err := h.Mutate(context.Background(), op.NewRemoveLink(issue.ID, args[1]))
		if err != nil {
			return err
		}
		if outcome.Kind == merge.KindRejected && outcome.Err != nil {
			return outcome.Err
		}
		return nil
	},
}

func init() {
	linkAddCmd.Flags().StringVar(&linkKind, "kind", "", "link kind")
	linkAddCmd.Flags().StringVar(&linkExternalID, "external-id", "", "external tracker id")
	linkAddCmd.Flags().StringVar(&linkRel, "rel", "", "relation to the link target")
	linkCmd.AddCommand(linkAddCmd, linkRemoveCmd)
	rootCmd.AddCommand(linkCmd)
}
