package folio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eringen/folio/content"
)

func TestPostCacheServesUntilInvalidated(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.Seed(ctx); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	c := NewPostCache(s, time.Hour)

	posts, err := c.ListPosts(ctx, content.Query{})
	if err != nil || len(posts) != 4 {
		t.Fatalf("ListPosts = %d, %v; want 4", len(posts), err)
	}

	extra := testPost("late-addition")
	extra.PublishedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.SavePost(ctx, extra); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if _, err := c.GetPost(ctx, "late-addition"); !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("expected stale cache to miss the new post, got %v", err)
	}

	c.Invalidate()
	got, err := c.GetPost(ctx, "late-addition")
	if err != nil {
		t.Fatalf("GetPost after Invalidate: %v", err)
	}
	if got.Title != extra.Title {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestPostCacheFilterAndFeatured(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.Seed(ctx); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	c := NewPostCache(s, time.Minute)

	guitar, err := c.ListPosts(ctx, content.ParseQuery("guitar", ""))
	if err != nil || len(guitar) != 1 || guitar[0].Category != content.CategoryGuitar {
		t.Fatalf("guitar filter = %+v, %v", guitar, err)
	}

	featured, err := c.Featured(ctx, 1)
	if err != nil || len(featured) != 1 || featured[0].Slug != "getting-started-with-nextjs-15" {
		t.Fatalf("Featured(1) = %+v, %v", featured, err)
	}

	tags, err := c.ListTags(ctx)
	if err != nil || len(tags) == 0 {
		t.Fatalf("ListTags = %v, %v", tags, err)
	}
}

func TestPostCacheExpires(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewPostCache(s, 50*time.Millisecond)

	posts, err := c.ListPosts(ctx, content.Query{})
	if err != nil || len(posts) != 0 {
		t.Fatalf("ListPosts = %d, %v; want empty", len(posts), err)
	}
	if err := s.SavePost(ctx, testPost("fresh")); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	if _, err := c.GetPost(ctx, "fresh"); err != nil {
		t.Fatalf("expected reload after TTL, got %v", err)
	}
}
