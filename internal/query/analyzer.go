// Package query classifies questions and derives keywords, expansions and candidate counts from them.
package query

import (
	"strings"
	"unicode/utf8"

	"kbqa/internal/textutil"
)

// QuestionType is the coarse intent of a question.
type QuestionType string

const (
	QuestionFactual     QuestionType = "factual"
	QuestionComparative QuestionType = "comparative"
	QuestionSummary     QuestionType = "summary"
	QuestionProcedural  QuestionType = "procedural"
	QuestionDefinition  QuestionType = "definition"
)

// cue lists are checked in this order; the first hit wins.
var questionTypeOrder = []QuestionType{
	QuestionComparative,
	QuestionSummary,
	QuestionProcedural,
	QuestionDefinition,
}

func (q QuestionType) valid() bool {
	switch q {
	case QuestionFactual, QuestionComparative, QuestionSummary, QuestionProcedural, QuestionDefinition:
		return true
	}
	return false
}

// Broad reports whether the question type asks for a wider evidence set.
func (q QuestionType) Broad() bool {
	return q == QuestionComparative || q == QuestionSummary
}

// Complexity is the three-level difficulty label of a question.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

const (
	longQuestionRunes   = 80
	mediumQuestionRunes = 40
	clausePunctuation   = ",，;；"
)

// Analysis is the deterministic reading of one question.
type Analysis struct {
	OriginalQuery string       `json:"original_query"`
	QuestionType  QuestionType `json:"question_type"`
	Complexity    Complexity   `json:"complexity"`
	Keywords      []string     `json:"keywords"`
	Expansions    []string     `json:"expansions"`
}

// Analyzer derives an Analysis from question text using a fixed lexicon.
type Analyzer struct {
	lexicon       *Lexicon
	maxExpansions int
}

// NewAnalyzer creates an analyzer. maxExpansions caps GenerateExpansions.
func NewAnalyzer(lexicon *Lexicon, maxExpansions int) *Analyzer {
	return &Analyzer{
		lexicon:       lexicon,
		maxExpansions: maxExpansions,
	}
}

// Analyze runs type detection, complexity scoring, keyword extraction and expansion.
func (a *Analyzer) Analyze(question string) Analysis {
	return a.AnalyzeAs(question, a.DetectQuestionType(question))
}

// AnalyzeAs is Analyze with a question type decided elsewhere.
func (a *Analyzer) AnalyzeAs(question string, questionType QuestionType) Analysis {
	keywords := a.ExtractKeywords(question)
	return Analysis{
		OriginalQuery: question,
		QuestionType:  questionType,
		Complexity:    a.ClassifyComplexity(question, questionType),
		Keywords:      keywords,
		Expansions:    a.GenerateExpansions(keywords),
	}
}

// DetectQuestionType matches the question against the lexicon's cue lists.
func (a *Analyzer) DetectQuestionType(question string) QuestionType {
	normalized := " " + textutil.Normalize(question) + " "
	for _, qt := range questionTypeOrder {
		for _, cue := range a.lexicon.QuestionCues[qt] {
			if cue != "" && strings.Contains(normalized, cue) {
				return qt
			}
		}
	}
	return QuestionFactual
}

// ClassifyComplexity scores the question and maps the score to a label.
// The result depends only on its inputs.
func (a *Analyzer) ClassifyComplexity(question string, questionType QuestionType) Complexity {
	score := 0

	length := utf8.RuneCountInString(strings.TrimSpace(question))
	if length > longQuestionRunes {
		score += 2
	} else if length > mediumQuestionRunes {
		score++
	}

	if strings.ContainsAny(question, clausePunctuation) {
		score++
	}
	if a.countConjunctions(question) >= 2 {
		score++
	}
	if questionType.Broad() {
		score++
	}

	switch {
	case score >= 3:
		return ComplexityComplex
	case score >= 1:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

// countConjunctions counts CJK conjunctions as substrings and latin ones as whole words.
func (a *Analyzer) countConjunctions(question string) int {
	normalized := textutil.Normalize(question)
	words := textutil.Tokenize(normalized)

	count := 0
	for _, conj := range a.lexicon.Conjunctions {
		if conj == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(conj)
		if textutil.IsCJK(r) {
			count += strings.Count(normalized, conj)
			continue
		}
		for _, w := range words {
			if w == conj {
				count++
			}
		}
	}
	return count
}

// ExtractKeywords splits on punctuation and whitespace, drops stopwords and
// single-character tokens, and deduplicates in first-seen order.
func (a *Analyzer) ExtractKeywords(question string) []string {
	words := textutil.SplitWords(question)
	seen := make(map[string]struct{}, len(words))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 1 {
			continue
		}
		if a.lexicon.IsStopword(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

// GenerateExpansions builds one alternate query per synonym of each keyword
// found in the synonym table, stopping once the cap is reached.
func (a *Analyzer) GenerateExpansions(keywords []string) []string {
	if a.maxExpansions <= 0 || len(keywords) == 0 {
		return nil
	}

	var expansions []string
	for i, kw := range keywords {
		for _, variant := range a.variants(kw) {
			alt := make([]string, len(keywords))
			copy(alt, keywords)
			alt[i] = variant
			expansions = append(expansions, strings.Join(alt, " "))
			if len(expansions) >= a.maxExpansions {
				return expansions
			}
		}
	}
	return expansions
}

// variants returns the synonym substitutions for one keyword. CJK keywords are
// unsegmented runs, so table entries found inside them are replaced in place.
func (a *Analyzer) variants(keyword string) []string {
	if syns, ok := a.lexicon.Synonyms[keyword]; ok {
		return syns
	}
	if strings.IndexFunc(keyword, textutil.IsCJK) < 0 {
		return nil
	}
	var out []string
	for _, key := range a.lexicon.synonymKeys {
		k, _ := utf8.DecodeRuneInString(key)
		if !textutil.IsCJK(k) || !strings.Contains(keyword, key) {
			continue
		}
		for _, syn := range a.lexicon.Synonyms[key] {
			out = append(out, strings.Replace(keyword, key, syn, 1))
		}
	}
	return out
}
