package content

import "strings"

// Query holds the blog listing filter inputs.
type Query struct {
	// Category is a category name or CategoryAll. Empty means all.
	Category string
	// Search is matched case-insensitively against title, excerpt and tags.
	Search string
}

// ParseQuery normalizes raw filter inputs. Unknown categories fall back to
// CategoryAll so a bad query string shows everything instead of nothing.
func ParseQuery(category, search string) Query {
	category = strings.ToLower(strings.TrimSpace(category))
	if category != CategoryAll && !Category(category).Valid() {
		category = CategoryAll
	}
	return Query{Category: category, Search: strings.TrimSpace(search)}
}

// IsZero reports whether q matches every post.
func (q Query) IsZero() bool {
	return (q.Category == "" || q.Category == CategoryAll) && strings.TrimSpace(q.Search) == ""
}

// Match reports whether p satisfies q.
func (q Query) Match(p BlogPost) bool {
	if q.Category != "" && q.Category != CategoryAll && string(p.Category) != q.Category {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Excerpt), term) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

// Filter returns the posts matching q in their original order.
func Filter(posts []BlogPost, q Query) []BlogPost {
	if q.IsZero() {
		return posts
	}
	var out []BlogPost
	for _, p := range posts {
		if q.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
