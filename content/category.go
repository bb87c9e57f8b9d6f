package content

// Category is the closed classification of blog posts. It drives both
// filtering and the styling of category badges.
type Category string

const (
	CategoryTechnology   Category = "technology"
	CategoryHealth       Category = "health"
	CategoryCalisthenics Category = "calisthenics"
	CategoryGuitar       Category = "guitar"
	CategoryLifestyle    Category = "lifestyle"
	CategoryOther        Category = "other"
)

// CategoryAll is the filter sentinel matching every category. It is never a
// valid value for BlogPost.Category.
const CategoryAll = "all"

type categoryInfo struct {
	label       string
	description string
	class       string
}

var categoryTable = map[Category]categoryInfo{
	CategoryTechnology: {
		label:       "Technology",
		description: "Web development, programming and the tools I build with.",
		class:       "bg-sky-100 text-sky-800",
	},
	CategoryHealth: {
		label:       "Health",
		description: "Habits, nutrition and looking after body and mind.",
		class:       "bg-emerald-100 text-emerald-800",
	},
	CategoryCalisthenics: {
		label:       "Calisthenics",
		description: "Bodyweight training progressions and routines.",
		class:       "bg-orange-100 text-orange-800",
	},
	CategoryGuitar: {
		label:       "Guitar",
		description: "Practice notes, songs and learning the instrument.",
		class:       "bg-violet-100 text-violet-800",
	},
	CategoryLifestyle: {
		label:       "Lifestyle",
		description: "Travel, productivity and everyday life.",
		class:       "bg-rose-100 text-rose-800",
	},
	CategoryOther: {
		label:       "Other",
		description: "Everything that does not fit elsewhere.",
		class:       "bg-stone-200 text-stone-800",
	},
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryTechnology,
		CategoryHealth,
		CategoryCalisthenics,
		CategoryGuitar,
		CategoryLifestyle,
		CategoryOther,
	}
}

// ParseCategory returns the category named s or ErrInvalidCategory.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Label returns the human readable name.
func (c Category) Label() string {
	if info, ok := categoryTable[c]; ok {
		return info.label
	}
	return string(c)
}

// Description returns a one-line description of the category.
func (c Category) Description() string {
	return categoryTable[c].description
}

// Class returns the CSS classes for the category badge.
func (c Category) Class() string {
	if info, ok := categoryTable[c]; ok {
		return info.class
	}
	return categoryTable[CategoryOther].class
}
