package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <source-id>...",
	Short: "Remove every chunk of one or more sources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		for _, sourceID := range args {
			if err := a.Retriever.DeleteDocuments(ctx, kbID, sourceID); err != nil {
				return fmt.Errorf("%s: %w", sourceID, err)
			}
			fmt.Println(color.GreenString("deleted %s", sourceID))
		}
		return nil
	},
}
