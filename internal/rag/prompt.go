package rag

import (
	"fmt"
	"strings"

	"kbqa/internal/llm"
	"kbqa/internal/retrieval"
	"kbqa/internal/storage"
)

const systemPrompt = "You are a helpful assistant that answers questions using only the numbered passages " +
	"from the user's knowledge base. Cite every claim with the passage number in square brackets, for example [1] or [2][3]. " +
	"If the passages do not contain enough information to answer, say so instead of guessing."

// BuildMessages assembles the chat prompt: system instructions, the recent
// conversation turns, then the question with the numbered passages. Passage
// numbers follow the order of evidence, which must be the citation order.
func BuildMessages(question string, evidence []retrieval.ScoredChunk, history []storage.MessageRecord) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("%s\n\n%s", question, formatPassages(evidence)),
	})
	return messages
}

func formatPassages(evidence []retrieval.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("--- Knowledge base passages ---\n\n")
	for i, c := range evidence {
		fmt.Fprintf(&b, "[%d] Source: %s", i+1, sourceLabel(c))
		fmt.Fprintf(&b, " (similarity %.2f)\n", c.Similarity)
		fmt.Fprintf(&b, "%s\n\n", c.Content)
	}
	b.WriteString("--- End passages ---")
	return b.String()
}

func sourceLabel(c retrieval.ScoredChunk) string {
	title := c.SourceTitle
	if title == "" {
		title = c.SourceID
	}
	var details []string
	if c.SourceType != "" {
		details = append(details, c.SourceType)
	}
	if c.Metadata.Page != nil {
		details = append(details, fmt.Sprintf("page %d", *c.Metadata.Page))
	}
	if len(details) == 0 {
		return title
	}
	return fmt.Sprintf("%s [%s]", title, strings.Join(details, ", "))
}
