package content

import "time"

// DefaultAuthor is credited on the sample posts.
var DefaultAuthor = Author{
	Name:   "Alex Pham",
	Avatar: "/public/images/avatar.svg",
	Bio:    "Developer, guitarist and bodyweight training enthusiast.",
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// SamplePosts returns the seed posts, newest first.
func SamplePosts() []BlogPost {
	posts := []BlogPost{
		{
			ID:         "1",
			Title:      "Getting Started with Next.js 15",
			Slug:       "getting-started-with-nextjs-15",
			Excerpt:    "A practical tour of the App Router, server components and the new caching defaults.",
			Category:   CategoryTechnology,
			Tags:       []string{"nextjs", "react", "web-development"},
			CoverImage: "/public/images/blog/nextjs.jpg",
			Content: `## Why Next.js 15

Next.js 15 makes server components the default and changes how fetch results are cached.

## Setting up

` + "```bash\nnpx create-next-app@latest my-app\n```" + `

- Use the **App Router** for new projects.
- Keep client components small.
- Opt in to caching explicitly.

Read the [official docs](https://nextjs.org/docs) for the full upgrade guide.`,
			PublishedAt: day("2024-01-15"),
			UpdatedAt:   day("2024-01-15"),
			Featured:    true,
			Published:   true,
		},
		{
			ID:         "2",
			Title:      "My Calisthenics Journey: From Zero to Muscle-Up",
			Slug:       "my-calisthenics-journey",
			Excerpt:    "How I went from struggling with a single pull-up to a clean muscle-up in a year.",
			Category:   CategoryCalisthenics,
			Tags:       []string{"calisthenics", "fitness", "bodyweight"},
			CoverImage: "/public/images/blog/calisthenics.jpg",
			Content: `## Where I started

One pull-up on a good day. I trained three times a week with a simple progression.

1. Dead hangs and scapular pulls
2. Negatives
3. Band-assisted pull-ups
4. Explosive chest-to-bar pulls

Consistency beat intensity every single time.`,
			PublishedAt: day("2024-01-10"),
			UpdatedAt:   day("2024-01-12"),
			Featured:    true,
			Published:   true,
		},
		{
			ID:         "3",
			Title:      "Learning Guitar: Tips for Beginners",
			Slug:       "learning-guitar-tips-for-beginners",
			Excerpt:    "What I wish I had known in my first six months with the instrument.",
			Category:   CategoryGuitar,
			Tags:       []string{"guitar", "music", "learning"},
			CoverImage: "/public/images/blog/guitar.jpg",
			Content: `## Start with the basics

Learn a handful of open chords and practise switching between them slowly.

> Fifteen focused minutes a day is worth more than two hours on Sunday.

Use a metronome, record yourself, and pick songs you actually enjoy.`,
			PublishedAt: day("2024-01-05"),
			UpdatedAt:   day("2024-01-05"),
			Published:   true,
		},
		{
			ID:         "4",
			Title:      "Building Healthy Habits That Stick",
			Slug:       "building-healthy-habits",
			Excerpt:    "Small routines around sleep, food and movement that survive a busy schedule.",
			Category:   CategoryHealth,
			Tags:       []string{"health", "habits", "wellness"},
			CoverImage: "/public/images/blog/habits.jpg",
			Content: `## Make it small

Habits stick when they are easy to start. Attach each one to something you already do.

| Habit | Trigger |
|---|---|
| Stretch | After coffee |
| Walk | After lunch |
| Read | Before bed |`,
			PublishedAt: day("2024-01-01"),
			UpdatedAt:   day("2024-01-01"),
			Published:   true,
		},
	}
	for i := range posts {
		posts[i].Author = DefaultAuthor
		posts[i].ReadingTime = ReadingTime(posts[i].Content)
	}
	return posts
}

// SampleProjects returns the seed portfolio entries.
func SampleProjects() []Project {
	end := day("2023-11-30")
	return []Project{
		{
			ID:              "personal-blog",
			Title:           "Personal Blog & Portfolio",
			Description:     "This site: a multilingual blog and portfolio.",
			LongDescription: "Server-rendered pages in six languages with a markdown blog, a contact form and a live task board.",
			Technologies:    []string{"Go", "Echo", "SQLite", "htmx"},
			Image:           "/public/images/projects/blog.jpg",
			GitHubURL:       "https://github.com/eringen/folio",
			Featured:        true,
			Status:          StatusInProgress,
			StartDate:       day("2023-12-01"),
		},
		{
			ID:              "taskflow",
			Title:           "TaskFlow",
			Description:     "A small task board with realtime updates.",
			LongDescription: "Tasks move between todo, in progress and done; every change is pushed to open boards over a websocket.",
			Technologies:    []string{"Go", "WebSocket", "NATS"},
			Image:           "/public/images/projects/taskflow.jpg",
			DemoURL:         "/taskflow/",
			Featured:        true,
			Status:          StatusCompleted,
			StartDate:       day("2023-09-01"),
			EndDate:         &end,
		},
		{
			ID:              "practice-tracker",
			Title:           "Practice Tracker",
			Description:     "Log training sessions and practice time.",
			LongDescription: "A mobile-first tracker for workouts and instrument practice with weekly summaries.",
			Technologies:    []string{"TypeScript", "React Native"},
			Image:           "/public/images/projects/tracker.jpg",
			Status:          StatusPlanned,
			StartDate:       day("2024-03-01"),
		},
	}
}
