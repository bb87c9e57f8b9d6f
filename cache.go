package folio

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/folio/content"
)

// PostCache is an in-memory cache of published blog posts and tags with TTL.
type PostCache struct {
	mu      sync.RWMutex
	posts   []content.BlogPost
	tags    []string
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags(ctx)
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []content.BlogPost{}
	}
	c.posts = posts
	c.tags = tags
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached posts and tags after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]content.BlogPost, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags := c.posts, c.tags
		c.mu.RUnlock()
		return posts, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.posts, c.tags, nil
}

// ListPosts returns published posts matching q, newest first.
func (c *PostCache) ListPosts(ctx context.Context, q content.Query) ([]content.BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return content.Filter(posts, q), nil
}

// Featured returns up to limit featured posts.
func (c *PostCache) Featured(ctx context.Context, limit int) ([]content.BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	var out []content.BlogPost
	for _, p := range posts {
		if p.Featured {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// ListTags returns all unique tags from published posts.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// GetPost returns a single published post by slug from the cache.
func (c *PostCache) GetPost(ctx context.Context, slug string) (content.BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return content.BlogPost{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return content.BlogPost{}, content.ErrNotFound
}
