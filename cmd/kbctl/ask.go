package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kbqa/internal/rag"
)

var (
	askSources      []string
	askConversation string
	askHybrid       string
	askDebug        bool
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		req := rag.AskRequest{
			KBID:           kbID,
			Question:       strings.Join(args, " "),
			ConversationID: askConversation,
			SourceIDs:      askSources,
			Debug:          askDebug,
		}
		switch askHybrid {
		case "":
		case "on", "true":
			on := true
			req.Hybrid = &on
		case "off", "false":
			off := false
			req.Hybrid = &off
		default:
			return fmt.Errorf("--hybrid must be on or off, got %q", askHybrid)
		}

		resp, err := a.Engine.Ask(ctx, req)
		if err != nil {
			return err
		}
		if askJSON || askDebug {
			return printJSON(resp)
		}
		printAnswer(resp)
		return nil
	},
}

func init() {
	askCmd.Flags().StringSliceVarP(&askSources, "source", "s", nil, "Restrict retrieval to these source ids")
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "Continue a conversation")
	askCmd.Flags().StringVar(&askHybrid, "hybrid", "", "Force hybrid search on or off")
	askCmd.Flags().BoolVar(&askDebug, "debug", false, "Print retrieval diagnostics (implies --json)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full response as JSON")
}

func printAnswer(resp rag.AskResponse) {
	if resp.AnswerMode == rag.AnswerNoEvidence {
		fmt.Println(color.YellowString("%s", resp.Answer))
	} else {
		fmt.Println(resp.Answer)
	}
	fmt.Println()

	for _, c := range resp.Citations {
		fmt.Printf("%s %s %s\n",
			color.CyanString("[%d]", c.Index),
			color.WhiteString("%s", c.SourceTitle),
			color.HiBlackString("(%.2f)", c.Similarity))
	}

	label := "-"
	if resp.Validation != nil {
		label = string(resp.Validation.QualityLabel)
	}
	fmt.Println(color.HiBlackString("confidence=%s citations=%s conversation=%s total=%dms",
		resp.Confidence.Level, label, resp.ConversationID, resp.Timing.TotalMS))
}
