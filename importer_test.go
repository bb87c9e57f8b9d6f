package folio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/folio/content"
)

const guitarPost = `---
title: Learning Guitar
category: Guitar
tags: [Guitar, music]
published_at: "2024-01-05"
featured: true
---

## First chords

Start with E minor.
`

func TestParsePost(t *testing.T) {
	post, err := ParsePost([]byte(guitarPost), "posts/learning-guitar.md", content.DefaultAuthor)
	if err != nil {
		t.Fatalf("ParsePost failed: %v", err)
	}
	if post.Slug != "learning-guitar" {
		t.Errorf("Slug = %q, want file name", post.Slug)
	}
	if post.Category != content.CategoryGuitar {
		t.Errorf("Category = %q", post.Category)
	}
	if len(post.Tags) != 2 || post.Tags[0] != "guitar" {
		t.Errorf("Tags = %v", post.Tags)
	}
	if !post.PublishedAt.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", post.PublishedAt)
	}
	if !post.Published || !post.Featured {
		t.Errorf("Published = %v, Featured = %v", post.Published, post.Featured)
	}
	if post.Content != "## First chords\n\nStart with E minor." {
		t.Errorf("Content = %q", post.Content)
	}
	if post.Author.Name != content.DefaultAuthor.Name {
		t.Errorf("Author = %q", post.Author.Name)
	}
}

func TestParsePostErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad category", "---\ntitle: X\ncategory: cooking\n---\nbody"},
		{"missing title", "---\ncategory: health\n---\nbody"},
		{"bad date", "---\ntitle: X\ncategory: health\npublished_at: \"next week\"\n---\nbody"},
	}
	for _, tt := range tests {
		if _, err := ParsePost([]byte(tt.src), "x.md", content.DefaultAuthor); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestParsePostDraftAndOverrides(t *testing.T) {
	src := "---\ntitle: Rest Days\nslug: rest-days-matter\ncategory: health\nauthor: Sam\ndraft: true\npublished_at: \"2024-02-01 08:30\"\n---\nRecover."
	post, err := ParsePost([]byte(src), "whatever.md", content.DefaultAuthor)
	if err != nil {
		t.Fatalf("ParsePost failed: %v", err)
	}
	if post.Slug != "rest-days-matter" || post.Author.Name != "Sam" || post.Published {
		t.Errorf("got slug %q author %q published %v", post.Slug, post.Author.Name, post.Published)
	}
	if post.PublishedAt.Hour() != 8 || post.PublishedAt.Minute() != 30 {
		t.Errorf("PublishedAt = %v", post.PublishedAt)
	}
}

func TestImportDir(t *testing.T) {
	s := setupTestStore(t)
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("learning-guitar.md", guitarPost)
	write("2024/habits.md", "---\ntitle: Habits\ncategory: health\n---\nSmall steps.")
	write("broken.md", "---\ntitle: Broken\ncategory: nope\n---\n")
	write("notes.txt", "ignored")

	res, err := ImportDir(context.Background(), s, dir, content.DefaultAuthor)
	if err != nil {
		t.Fatalf("ImportDir failed: %v", err)
	}
	if len(res.Imported) != 2 {
		t.Errorf("Imported = %v, want 2 posts", res.Imported)
	}
	if len(res.Failed) != 1 {
		t.Errorf("Failed = %v, want broken.md only", res.Failed)
	}
	if _, ok := res.Failed[filepath.Join(dir, "broken.md")]; !ok {
		t.Errorf("broken.md not reported: %v", res.Failed)
	}
	if _, err := s.GetPost(context.Background(), "habits"); err != nil {
		t.Errorf("imported post not stored: %v", err)
	}

	// Importing again updates in place.
	if _, err := ImportDir(context.Background(), s, dir, content.DefaultAuthor); err != nil {
		t.Fatalf("second ImportDir failed: %v", err)
	}
	if n, _ := s.CountPosts(context.Background()); n != 2 {
		t.Errorf("CountPosts = %d after re-import, want 2", n)
	}
}
