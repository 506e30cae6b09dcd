package query

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chatter.go -package=mocks kbqa/internal/query Chatter

import (
	"context"
	"fmt"
	"strings"

	"kbqa/internal/contextutil"
	"kbqa/internal/llm"
)

// Chatter sends a single prompt to a chat model.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// TypeClassifier decides the question type. When it cannot, it returns
// fallback and false.
type TypeClassifier interface {
	Classify(ctx context.Context, question string, fallback QuestionType) (QuestionType, bool)
}

// RuleClassifier uses the analyzer's cue lists.
type RuleClassifier struct {
	analyzer *Analyzer
}

// NewRuleClassifier creates a classifier backed by the analyzer's lexicon.
func NewRuleClassifier(analyzer *Analyzer) *RuleClassifier {
	return &RuleClassifier{analyzer: analyzer}
}

// Classify implements TypeClassifier.
func (c *RuleClassifier) Classify(_ context.Context, question string, _ QuestionType) (QuestionType, bool) {
	return c.analyzer.DetectQuestionType(question), true
}

const classifyPrompt = `Classify the question into exactly one type: factual, comparative, summary, procedural, definition.
Reply with JSON only, for example {"question_type":"factual"}.

Question: %s`

type classifyResponse struct {
	QuestionType QuestionType `json:"question_type"`
}

// LLMClassifier asks a chat model for the question type.
type LLMClassifier struct {
	chat Chatter
}

// NewLLMClassifier creates a model-backed classifier.
func NewLLMClassifier(chat Chatter) *LLMClassifier {
	return &LLMClassifier{chat: chat}
}

// Classify implements TypeClassifier. Model errors and unparseable replies
// yield the fallback type.
func (c *LLMClassifier) Classify(ctx context.Context, question string, fallback QuestionType) (QuestionType, bool) {
	logger := contextutil.LoggerFromContext(ctx)

	reply, err := c.chat.Chat(ctx, fmt.Sprintf(classifyPrompt, question))
	if err != nil {
		logger.WarnContext(ctx, "question classifier unavailable, using rule result", "error", err)
		return fallback, false
	}

	parsed, ok := llm.ParseStructured(reply, classifyResponse{QuestionType: fallback})
	qt := QuestionType(strings.ToLower(strings.TrimSpace(string(parsed.QuestionType))))
	if !ok || !qt.valid() {
		logger.WarnContext(ctx, "question classifier returned unusable output", "reply", reply)
		return fallback, false
	}
	return qt, true
}
