// Package content holds the site's content model: blog posts, projects,
// authors and the closed set of blog categories.
package content

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrNotFound is returned when a post or project does not exist.
	ErrNotFound = errors.New("content: not found")
	// ErrInvalidCategory is returned for a category outside the closed set.
	ErrInvalidCategory = errors.New("content: invalid category")
	// ErrInvalidStatus is returned for a project status outside the closed set.
	ErrInvalidStatus = errors.New("content: invalid project status")
)

// WordsPerMinute is the reading speed used to derive ReadingTime.
const WordsPerMinute = 200

// Author is the person credited on a post.
type Author struct {
	Name   string
	Avatar string
	Bio    string
}

// BlogPost is the core content type stored in SQLite and rendered by the views.
type BlogPost struct {
	ID          string
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	Category    Category
	Tags        []string
	Author      Author
	CoverImage  string
	PublishedAt time.Time
	UpdatedAt   time.Time
	ReadingTime int
	Featured    bool
	Published   bool
}

// Link returns the post path under the given locale, e.g. "/en/blog/my-post/".
func (p BlogPost) Link(locale string) string {
	return "/" + locale + "/blog/" + p.Slug + "/"
}

// Validate checks the invariants every stored post must hold.
func (p BlogPost) Validate() error {
	if strings.TrimSpace(p.Slug) == "" {
		return errors.New("content: slug is required")
	}
	if Slugify(p.Slug) != p.Slug {
		return errors.New("content: slug must be lowercase letters, digits and dashes")
	}
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("content: title is required")
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// ProjectStatus is the lifecycle state of a portfolio project.
type ProjectStatus string

const (
	StatusCompleted  ProjectStatus = "completed"
	StatusInProgress ProjectStatus = "in-progress"
	StatusPlanned    ProjectStatus = "planned"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusInProgress, StatusPlanned:
		return true
	}
	return false
}

// Label returns the display label for s.
func (s ProjectStatus) Label() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusInProgress:
		return "In progress"
	case StatusPlanned:
		return "Planned"
	}
	return string(s)
}

// ProjectStatuses lists statuses in display order.
func ProjectStatuses() []ProjectStatus {
	return []ProjectStatus{StatusCompleted, StatusInProgress, StatusPlanned}
}

// Project is a portfolio entry.
type Project struct {
	ID              string
	Title           string
	Description     string
	LongDescription string
	Technologies    []string
	Image           string
	DemoURL         string
	GitHubURL       string
	Featured        bool
	Status          ProjectStatus
	StartDate       time.Time
	EndDate         *time.Time
}

// Validate checks the invariants every stored project must hold.
func (p Project) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("content: project id is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("content: project title is required")
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return errors.New("content: project ends before it starts")
	}
	return nil
}

// FilterProjects returns projects with the given status, or all when status is empty.
func FilterProjects(projects []Project, status ProjectStatus) []Project {
	if status == "" {
		return projects
	}
	var out []Project
	for _, p := range projects {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// ReadingTime estimates minutes needed to read markdown text.
func ReadingTime(text string) int {
	words := len(strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	}))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// NormalizeTags lowercases, trims and deduplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// RelatedPosts finds posts that share a tag or the category with current.
func RelatedPosts(current BlogPost, posts []BlogPost, limit int) []BlogPost {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		tagSet[strings.ToLower(t)] = struct{}{}
	}
	var related []BlogPost
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		match := p.Category == current.Category
		for _, t := range p.Tags {
			if _, ok := tagSet[strings.ToLower(t)]; ok {
				match = true
				break
			}
		}
		if match {
			related = append(related, p)
			if limit > 0 && len(related) == limit {
				break
			}
		}
	}
	return related
}
