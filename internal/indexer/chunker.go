package indexer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	minChunkSize = 50
	maxChunkSize = 700 // runes; about 450 tokens for a 512-token embedding model
)

// GoldmarkChunker chunks markdown content using goldmark AST parsing.
type GoldmarkChunker struct {
	parser goldmark.Markdown
}

// NewGoldmarkChunker creates a new goldmark chunker.
func NewGoldmarkChunker() *GoldmarkChunker {
	return &GoldmarkChunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// ChunkMarkdown parses markdown content and returns the title and chunks.
// Chunks follow the heading hierarchy, then small sections are merged and
// large ones split so every chunk holds at most maxChunkSize runes.
func (c *GoldmarkChunker) ChunkMarkdown(content []byte, filename string) (title string, chunks []Chunk, err error) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return titleFromFilename(filename), []Chunk{}, nil
	}

	doc := c.parser.Parser().Parse(text.NewReader(content))
	title = extractTitle(doc, content, filename)

	sections := buildSections(doc, content, title)
	chunks = applySizeConstraints(sections)
	return title, chunks, nil
}

// extractTitle returns the first level-1 heading, else the first level-2
// heading, else a title derived from the filename.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var firstH1, firstH2 string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		switch {
		case heading.Level == 1:
			firstH1 = nodeText(heading, content)
			return ast.WalkStop, nil
		case heading.Level == 2 && firstH2 == "":
			firstH2 = nodeText(heading, content)
		}
		return ast.WalkSkipChildren, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return titleFromFilename(filename)
}

// titleFromFilename drops the extension and capitalizes each word.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	if len(words) == 0 {
		return "Untitled"
	}
	return strings.Join(words, " ")
}

// section accumulates the text under one heading along with the byte span
// of the source it came from.
type section struct {
	headingPath string
	text        strings.Builder
	startByte   int
	endByte     int
	hasSpan     bool
}

func (s *section) cover(start, stop int) {
	if !s.hasSpan || start < s.startByte {
		s.startByte = start
	}
	if !s.hasSpan || stop > s.endByte {
		s.endByte = stop
	}
	s.hasSpan = true
}

func (s *section) newline() {
	str := s.text.String()
	if len(str) > 0 && !strings.HasSuffix(str, "\n") {
		s.text.WriteByte('\n')
	}
}

type headingInfo struct {
	level int
	text  string
}

// buildHeadingPath formats the heading stack as "# A > ## B > ### C".
func buildHeadingPath(stack []headingInfo) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", h.level), h.text)
	}
	return strings.Join(parts, " > ")
}

// buildSections walks the AST and starts a new section at every heading.
// Text before the first heading is filed under the document title.
func buildSections(doc ast.Node, content []byte, docTitle string) []Chunk {
	var out []Chunk
	var stack []headingInfo
	current := &section{headingPath: "# " + docTitle}

	flush := func() {
		body := strings.TrimSpace(current.text.String())
		if body == "" {
			return
		}
		out = append(out, Chunk{
			HeadingPath: current.headingPath,
			Text:        body,
			StartChar:   utf8.RuneCount(content[:current.startByte]),
			EndChar:     utf8.RuneCount(content[:current.endByte]),
		})
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			flush()
			for len(stack) > 0 && stack[len(stack)-1].level >= node.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headingInfo{level: node.Level, text: nodeText(node, content)})
			current = &section{headingPath: buildHeadingPath(stack)}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			seg := node.Segment
			current.text.Write(seg.Value(content))
			current.cover(seg.Start, seg.Stop)
			if node.HardLineBreak() {
				current.text.WriteByte('\n')
			} else if node.SoftLineBreak() {
				current.text.WriteByte(' ')
			}

		case *ast.String:
			current.text.Write(node.Value)

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			current.newline()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				current.text.Write(line.Value(content))
				current.cover(line.Start, line.Stop)
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List, *ast.ListItem, *ast.Blockquote:
			current.newline()

		case *east.Table:
			current.newline()

		case *east.TableHeader, *east.TableRow:
			current.newline()
			current.text.WriteString(tableRowText(n, content))
			current.text.WriteByte('\n')
			if lines := n.Lines(); lines != nil && lines.Len() > 0 {
				current.cover(lines.At(0).Start, lines.At(lines.Len()-1).Stop)
			} else {
				coverTextSegments(current, n)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	if len(out) == 0 {
		out = append(out, Chunk{
			HeadingPath: "# " + docTitle,
			Text:        strings.TrimSpace(string(content)),
			EndChar:     utf8.RuneCount(content),
		})
	}
	return out
}

// coverTextSegments extends the section span over every text node under n.
func coverTextSegments(s *section, n ast.Node) {
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := node.(*ast.Text); ok && entering {
			s.cover(t.Segment.Start, t.Segment.Stop)
		}
		return ast.WalkContinue, nil
	})
}

// nodeText returns the concatenated inline text under n.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// tableRowText renders a header or body row as "a | b | c".
func tableRowText(row ast.Node, content []byte) string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*east.TableCell); ok {
			cells = append(cells, nodeText(cell, content))
		}
	}
	return strings.Join(cells, " | ")
}

// applySizeConstraints merges consecutive sections with the same heading
// path or below minChunkSize runes while the result fits maxChunkSize, then
// splits anything still over the limit. Chunks are re-indexed from 0.
func applySizeConstraints(sections []Chunk) []Chunk {
	var result []Chunk
	for i := 0; i < len(sections); i++ {
		current := sections[i]
		for i+1 < len(sections) {
			next := sections[i+1]
			sameSection := current.HeadingPath == next.HeadingPath
			tooSmall := utf8.RuneCountInString(current.Text) < minChunkSize
			if !sameSection && !tooSmall {
				break
			}
			merged := current.Text + "\n\n" + next.Text
			if utf8.RuneCountInString(merged) > maxChunkSize {
				break
			}
			current.Text = merged
			current.EndChar = max(current.EndChar, next.EndChar)
			i++
		}

		if utf8.RuneCountInString(current.Text) > maxChunkSize {
			result = append(result, splitChunk(current)...)
		} else {
			result = append(result, current)
		}
	}

	for i := range result {
		result[i].Index = i
	}
	return result
}

// splitChunk cuts an oversized chunk at the last paragraph break, line break
// or sentence end inside each window of maxChunkSize runes, falling back to
// a hard cut.
func splitChunk(chunk Chunk) []Chunk {
	runes := []rune(chunk.Text)
	if len(runes) <= maxChunkSize {
		return []Chunk{chunk}
	}

	var splits []Chunk
	start := 0
	for start < len(runes) {
		end := min(start+maxChunkSize, len(runes))
		if end < len(runes) {
			end = start + splitPoint(runes[start:end])
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			splits = append(splits, Chunk{
				HeadingPath: chunk.HeadingPath,
				Text:        piece,
				StartChar:   min(chunk.StartChar+start, chunk.EndChar),
				EndChar:     min(chunk.StartChar+end, chunk.EndChar),
			})
		}
		start = end
	}
	return splits
}

// splitPoint returns the rune offset at which to cut window.
func splitPoint(window []rune) int {
	s := string(window)
	for _, sep := range []string{"\n\n", "\n", ". ", "。"} {
		if idx := strings.LastIndex(s, sep); idx > 0 {
			return utf8.RuneCountInString(s[:idx+len(sep)])
		}
	}
	return len(window)
}
