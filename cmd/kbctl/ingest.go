package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kbqa/internal/docsource"
	"kbqa/internal/indexer"
)

var (
	ingestSourceType string
	ingestJSON       bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a markdown file or directory",
	Long: `Chunk every markdown file under path and store the chunks the knowledge base
does not have yet. Each file's path relative to <path> becomes its source id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		docs, err := docsource.Load(ctx, args[0], ingestSourceType)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println(color.YellowString("No markdown files found in %s", args[0]))
			return nil
		}

		summary, ingestErr := a.Ingester.IngestAll(ctx, kbID, docs)
		if ingestJSON {
			if err := printJSON(summary); err != nil {
				return err
			}
			return ingestErr
		}
		printSummary(summary)
		return ingestErr
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSourceType, "type", "t", indexer.DefaultSourceType, "Source type recorded on every chunk")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "Print the ingestion summary as JSON")
}

func printSummary(s *indexer.Summary) {
	for _, r := range s.Results {
		line := fmt.Sprintf("%-40s chunks=%d inserted=%d skipped=%d", r.SourceID, r.Chunks, r.Inserted, r.Skipped)
		if r.Inserted > 0 {
			fmt.Println(color.GreenString("%s", line))
		} else {
			fmt.Println(color.WhiteString("%s", line))
		}
	}
	fmt.Println(color.CyanString("%d documents, %d failed, %d chunks inserted, %d skipped (index %s)",
		s.DocsProcessed, s.DocsFailed, s.ChunksInserted, s.ChunksSkipped, s.IndexVersion))
}
