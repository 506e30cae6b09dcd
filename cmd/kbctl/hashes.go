package main

import (
	"sort"

	"github.com/spf13/cobra"
)

var hashesCmd = &cobra.Command{
	Use:   "hashes <source-id>",
	Short: "List the content hashes stored for a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		set, err := a.Retriever.ExistingHashes(ctx, kbID, args[0])
		if err != nil {
			return err
		}
		hashes := make([]string, 0, len(set))
		for h := range set {
			hashes = append(hashes, h)
		}
		sort.Strings(hashes)
		return printJSON(map[string]any{
			"kb_id":     kbID,
			"source_id": args[0],
			"count":     len(hashes),
			"hashes":    hashes,
		})
	},
}
