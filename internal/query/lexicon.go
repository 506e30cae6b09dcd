package query

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"kbqa/internal/textutil"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Lexicon holds the closed word tables used by the analyzer.
type Lexicon struct {
	Stopwords    []string                  `yaml:"stopwords"`
	Synonyms     map[string][]string       `yaml:"synonyms"`
	QuestionCues map[QuestionType][]string `yaml:"question_cues"`
	Conjunctions []string                  `yaml:"conjunctions"`

	stopwordSet map[string]struct{}
	synonymKeys []string
}

// DefaultLexicon returns the lexicon compiled into the binary.
func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(defaultLexicon)
}

// LoadLexicon reads a lexicon file. An empty path returns the default lexicon.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes YAML lexicon data and normalizes every entry.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	lex.stopwordSet = make(map[string]struct{}, len(lex.Stopwords))
	for _, w := range lex.Stopwords {
		lex.stopwordSet[textutil.Normalize(w)] = struct{}{}
	}

	synonyms := make(map[string][]string, len(lex.Synonyms))
	for k, v := range lex.Synonyms {
		synonyms[textutil.Normalize(k)] = v
	}
	lex.Synonyms = synonyms
	for k := range synonyms {
		lex.synonymKeys = append(lex.synonymKeys, k)
	}
	sort.Strings(lex.synonymKeys)

	for qt, cues := range lex.QuestionCues {
		if !qt.valid() {
			return nil, fmt.Errorf("unknown question type %q in lexicon", qt)
		}
		for i, c := range cues {
			cues[i] = textutil.Normalize(c)
		}
	}
	for i, c := range lex.Conjunctions {
		lex.Conjunctions[i] = textutil.Normalize(c)
	}

	return &lex, nil
}

// IsStopword reports whether the normalized word is in the stopword table.
func (l *Lexicon) IsStopword(word string) bool {
	_, ok := l.stopwordSet[word]
	return ok
}
