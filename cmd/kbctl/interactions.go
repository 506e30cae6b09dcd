package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kbqa/internal/rag"
)

var (
	interactionsLimit int
	interactionsJSON  bool
)

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "List the most recent answers recorded for the knowledge base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		records, err := a.Interactions.ListByKB(ctx, kbID, interactionsLimit)
		if err != nil {
			return err
		}
		if interactionsJSON {
			return printJSON(records)
		}
		if len(records) == 0 {
			fmt.Println(color.YellowString("No interactions recorded for %s", kbID))
			return nil
		}

		for _, rec := range records {
			mode := color.GreenString("%s", rec.AnswerMode)
			if rec.AnswerMode == string(rag.AnswerNoEvidence) {
				mode = color.YellowString("%s", rec.AnswerMode)
			}
			fmt.Printf("%s  %-11s %-6s %-9s evidence=%d top=%.2f  %s\n",
				color.HiBlackString(rec.CreatedAt.Format("2006-01-02 15:04:05")),
				mode, rec.Confidence, rec.QualityLabel,
				rec.EvidenceCount, rec.TopSimilarity, rec.Question)
		}
		return nil
	},
}

func init() {
	interactionsCmd.Flags().IntVarP(&interactionsLimit, "limit", "n", 20, "Number of interactions to show")
	interactionsCmd.Flags().BoolVar(&interactionsJSON, "json", false, "Print the records as JSON")
}
