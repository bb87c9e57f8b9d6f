package folio

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/eringen/folio/content"
)

// postFrontMatter is the YAML header of an imported markdown post:
//
//	---
//	title: Learning Guitar
//	category: guitar
//	tags: [guitar, music]
//	published_at: 2024-01-05
//	---
type postFrontMatter struct {
	Title       string   `yaml:"title"`
	Slug        string   `yaml:"slug"`
	Excerpt     string   `yaml:"excerpt"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
	Author      string   `yaml:"author"`
	CoverImage  string   `yaml:"cover_image"`
	PublishedAt string   `yaml:"published_at"`
	Featured    bool     `yaml:"featured"`
	Draft       bool     `yaml:"draft"`
}

var frontMatterDates = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

// ParsePost reads a markdown file with YAML front matter. The slug defaults to
// the file name and the author to author.
func ParsePost(src []byte, filename string, author content.Author) (content.BlogPost, error) {
	var fm postFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(src), &fm)
	if err != nil {
		return content.BlogPost{}, fmt.Errorf("%s: front matter: %w", filename, err)
	}
	slug := fm.Slug
	if slug == "" {
		slug = content.Slugify(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	}
	if fm.Author != "" {
		author.Name = fm.Author
	}
	post := content.BlogPost{
		Title:      fm.Title,
		Slug:       slug,
		Excerpt:    fm.Excerpt,
		Content:    strings.TrimSpace(string(body)),
		Category:   content.Category(strings.ToLower(fm.Category)),
		Tags:       content.NormalizeTags(fm.Tags),
		Author:     author,
		CoverImage: fm.CoverImage,
		Featured:   fm.Featured,
		Published:  !fm.Draft,
	}
	if fm.PublishedAt != "" {
		for _, layout := range frontMatterDates {
			if t, err := time.Parse(layout, fm.PublishedAt); err == nil {
				post.PublishedAt = t.UTC()
				break
			}
		}
		if post.PublishedAt.IsZero() {
			return content.BlogPost{}, fmt.Errorf("%s: published_at %q is not a date", filename, fm.PublishedAt)
		}
	}
	post.UpdatedAt = post.PublishedAt
	if err := post.Validate(); err != nil {
		return content.BlogPost{}, fmt.Errorf("%s: %w", filename, err)
	}
	return post, nil
}

// ImportResult summarizes one ImportDir run.
type ImportResult struct {
	Imported []string // slugs
	Failed   map[string]error
}

// ImportDir upserts every *.md file under dir into s. Files that fail to parse
// are reported in Failed and do not stop the import.
func ImportDir(ctx context.Context, s *Store, dir string, author content.Author) (ImportResult, error) {
	res := ImportResult{Failed: map[string]error{}}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		post, err := ParsePost(src, path, author)
		if err != nil {
			res.Failed[path] = err
			return nil
		}
		if err := s.SavePost(ctx, post); err != nil {
			res.Failed[path] = err
			return nil
		}
		res.Imported = append(res.Imported, post.Slug)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("import %s: %w", dir, err)
	}
	return res, nil
}
