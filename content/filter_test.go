package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func titles(posts []BlogPost) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func TestFilterSampleSet(t *testing.T) {
	posts := SamplePosts()
	tests := []struct {
		name     string
		category string
		search   string
		want     []string
	}{
		{
			name:     "technology category",
			category: "technology",
			want:     []string{"Getting Started with Next.js 15"},
		},
		{
			name:     "guitar search across all",
			category: "all",
			search:   "guitar",
			want:     []string{"Learning Guitar: Tips for Beginners"},
		},
		{
			name:     "search is case insensitive",
			category: "all",
			search:   "  HABITS ",
			want:     []string{"Building Healthy Habits That Stick"},
		},
		{
			name:   "search matches tags",
			search: "bodyweight",
			want:   []string{"My Calisthenics Journey: From Zero to Muscle-Up"},
		},
		{
			name:     "category and search combine",
			category: "health",
			search:   "guitar",
			want:     []string{},
		},
		{
			name:     "unknown category shows everything",
			category: "cooking",
			want:     titles(posts),
		},
		{
			name: "empty query returns full set",
			want: titles(posts),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(Filter(posts, ParseQuery(tt.category, tt.search)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter(%q, %q) mismatch (-want +got):\n%s", tt.category, tt.search, diff)
			}
		})
	}
}

func TestFilterCategoryOnlyReturnsThatCategory(t *testing.T) {
	posts := SamplePosts()
	for _, c := range Categories() {
		for _, p := range Filter(posts, Query{Category: string(c)}) {
			if p.Category != c {
				t.Errorf("Filter(category=%s) returned %q in %s", c, p.Title, p.Category)
			}
		}
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	posts := SamplePosts()
	queries := []Query{
		{Category: "technology"},
		{Category: "all", Search: "learning"},
		{Search: "the"},
		{},
	}
	for _, q := range queries {
		once := Filter(posts, q)
		twice := Filter(once, q)
		if diff := cmp.Diff(titles(once), titles(twice)); diff != "" {
			t.Errorf("Filter not idempotent for %+v (-once +twice):\n%s", q, diff)
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	posts := SamplePosts()
	got := Filter(posts, Query{Search: "e"})
	last := -1
	for _, p := range got {
		idx := -1
		for i := range posts {
			if posts[i].ID == p.ID {
				idx = i
			}
		}
		if idx <= last {
			t.Fatalf("post %q out of order", p.Title)
		}
		last = idx
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		category, search string
		want             Query
	}{
		{"", "", Query{Category: CategoryAll}},
		{"Technology", " go ", Query{Category: "technology", Search: "go"}},
		{"ALL", "", Query{Category: CategoryAll}},
		{"unknown", "x", Query{Category: CategoryAll, Search: "x"}},
	}
	for _, tt := range tests {
		if got := ParseQuery(tt.category, tt.search); got != tt.want {
			t.Errorf("ParseQuery(%q, %q) = %+v, want %+v", tt.category, tt.search, got, tt.want)
		}
	}
}
