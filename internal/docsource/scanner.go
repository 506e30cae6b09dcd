// Package docsource reads markdown documents from a directory tree for ingestion.
package docsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kbqa/internal/indexer"
)

// ScannedFile represents a markdown file found during scanning.
type ScannedFile struct {
	RelPath string // path from the scan root with forward slashes, e.g. "ops/deploy.md"
	AbsPath string
}

// Scan walks root and returns every markdown file below it. Hidden
// directories such as .git or .obsidian are skipped. A single file path is
// returned as itself.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", root, err)
	}
	if !info.IsDir() {
		return []ScannedFile{{RelPath: filepath.Base(root), AbsPath: root}}, nil
	}

	var files []ScannedFile
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(path) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		files = append(files, ScannedFile{RelPath: filepath.ToSlash(relPath), AbsPath: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return files, nil
}

// Load scans root and reads every file into a document whose source id is
// the relative path.
func Load(ctx context.Context, root, sourceType string) ([]indexer.Document, error) {
	files, err := Scan(ctx, root)
	if err != nil {
		return nil, err
	}

	docs := make([]indexer.Document, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.RelPath, err)
		}
		docs = append(docs, indexer.Document{
			SourceID:   f.RelPath,
			SourceType: sourceType,
			Filename:   filepath.Base(f.RelPath),
			Content:    string(content),
		})
	}
	return docs, nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
