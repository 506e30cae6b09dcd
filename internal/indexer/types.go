package indexer

// Chunk is a passage cut from a markdown document.
// StartChar and EndChar are rune offsets into the source text; for pieces of
// a split section they are approximate.
type Chunk struct {
	Index       int
	HeadingPath string // "# Heading1 > ## Heading2"
	Text        string
	StartChar   int
	EndChar     int
}

// Document is one source to ingest into a knowledge base.
type Document struct {
	SourceID   string `json:"source_id"`
	Title      string `json:"title,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Content    string `json:"content"`
}

// Result reports what happened to one document.
type Result struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	Chunks   int    `json:"chunks"`
	Skipped  int    `json:"skipped"`
	Inserted int    `json:"inserted"`
	// token estimates of the chunks that were embedded
	TokenCounts []int `json:"-"`
}
