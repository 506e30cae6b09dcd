package llm

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

// ParseStructured decodes JSON produced by a model into a T.
// Code fences are stripped, a missing closing brace is tolerated, and broken
// JSON is repaired before giving up. When nothing decodes it returns fallback
// and false instead of an error so callers always have a usable value.
func ParseStructured[T any](raw string, fallback T) (T, bool) {
	text := stripCodeFence(raw)
	if text == "" {
		return fallback, false
	}

	var out T
	if err := jsoniter.UnmarshalFromString(text, &out); err == nil {
		return out, true
	}

	out = *new(T)
	if err := jsoniter.UnmarshalFromString(text+"}", &out); err == nil {
		return out, true
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return fallback, false
	}
	out = *new(T)
	if err := jsoniter.UnmarshalFromString(repaired, &out); err != nil {
		return fallback, false
	}
	return out, true
}

func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
