package docsource

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"note1.md":             "# One",
		"ops/deploy.md":        "# Deploy",
		"ops/RUNBOOK.MARKDOWN": "# Runbook",
		"ops/diagram.png":      "binary",
		".obsidian/config.md":  "hidden",
		".git/HEAD.md":         "hidden",
	})

	files, err := Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	var got []string
	for _, f := range files {
		got = append(got, f.RelPath)
		if !filepath.IsAbs(f.AbsPath) {
			t.Errorf("AbsPath %q should be absolute", f.AbsPath)
		}
	}
	sort.Strings(got)
	want := []string{"note1.md", "ops/RUNBOOK.MARKDOWN", "ops/deploy.md"}
	if len(got) != len(want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScan_SingleFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"guide.md": "# Guide"})

	files, err := Scan(context.Background(), filepath.Join(root, "guide.md"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "guide.md" {
		t.Errorf("Scan() = %+v, want guide.md", files)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Scan() should fail for a missing root")
	}
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "# A"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Scan(ctx, root); err == nil {
		t.Error("Scan() should stop on a cancelled context")
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"ops/deploy.md": "# Deploy\n\nUse helm."})

	docs, err := Load(context.Background(), root, "markdown")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Load() returned %d docs, want 1", len(docs))
	}
	d := docs[0]
	if d.SourceID != "ops/deploy.md" || d.Filename != "deploy.md" || d.SourceType != "markdown" {
		t.Errorf("Load() doc = %+v", d)
	}
	if d.Content != "# Deploy\n\nUse helm." {
		t.Errorf("Load() content = %q", d.Content)
	}
}
