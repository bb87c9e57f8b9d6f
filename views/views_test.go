package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/i18n"
	"github.com/eringen/folio/taskflow"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func testPage(l i18n.Locale, path string) Page {
	return Page{
		Site:   Site{Name: "Folio", URL: "https://example.com", Author: "Alex Pham"},
		Locale: l,
		Path:   path,
		CSRF:   "tok",
	}
}

func TestEveryPageParses(t *testing.T) {
	for _, name := range []string{
		"home", "about", "blog", "post", "projects", "contact", "taskflow",
		"not-found", "server-error", "admin-login", "admin-dashboard", "admin-post",
		"admin-project", "admin-messages", "admin-images",
	} {
		assert.Contains(t, pages, name)
	}
}

func TestBlogRendersFilteredPosts(t *testing.T) {
	q := content.ParseQuery("technology", "")
	out := render(t, Blog(BlogData{
		Page:       testPage(i18n.French, "/blog/"),
		Posts:      content.Filter(content.SamplePosts(), q),
		Query:      q,
		Categories: content.Categories(),
	}))

	assert.Contains(t, out, `<html lang="fr">`)
	assert.Contains(t, out, "Getting Started with Next.js 15")
	assert.NotContains(t, out, "Learning Guitar")
	assert.Contains(t, out, `href="/fr/blog/getting-started-with-nextjs-15/"`)
	assert.Contains(t, out, `<option value="technology" selected>`)
}

func TestBlogResultsEmptyMessage(t *testing.T) {
	out := render(t, BlogResults(BlogData{
		Page:  testPage(i18n.English, "/blog/"),
		Query: content.ParseQuery("guitar", "nextjs"),
	}))
	assert.Contains(t, out, "No posts found matching your criteria.")
	assert.NotContains(t, out, "<html")
}

func TestLocaleSwitcherLinksSamePage(t *testing.T) {
	out := render(t, About(AboutData{
		Page:       testPage(i18n.German, "/about/"),
		Author:     content.DefaultAuthor,
		Categories: content.Categories(),
	}))
	for _, l := range i18n.Locales() {
		assert.Contains(t, out, `href="/`+string(l)+`/about/"`)
	}
	assert.Contains(t, out, `<link rel="canonical" href="https://example.com/de/about/">`)
}

func TestPostRendersMarkdownAndRelated(t *testing.T) {
	posts := content.SamplePosts()
	post := posts[1]
	post.Content = "## Week one\n\nStarted with **push-ups**."
	out := render(t, Post(PostData{
		Page:    testPage(i18n.English, "/blog/"+post.Slug+"/"),
		Post:    post,
		Related: content.RelatedPosts(post, posts, 3),
	}))
	assert.Contains(t, out, `<h2 id="week-one">Week one</h2>`)
	assert.Contains(t, out, "<strong>push-ups</strong>")
	assert.Contains(t, out, post.Author.Name)
}

func TestContactFormStates(t *testing.T) {
	base := ContactData{Page: testPage(i18n.Spanish, "/contact/"), ResetAfterMS: 5000}

	idle := render(t, ContactForm(base))
	assert.Contains(t, idle, `hx-post="/es/contact/"`)
	assert.Contains(t, idle, `name="_csrf" value="tok"`)

	invalid := base
	invalid.Form = contact.FormData{Name: "Ada"}
	invalid.Errors = contact.ValidationErrors{"email": "This field is required."}
	out := render(t, ContactForm(invalid))
	assert.Contains(t, out, `value="Ada"`)
	assert.Contains(t, out, "This field is required.")

	success := base
	success.State = contact.StateSuccess
	out = render(t, ContactForm(success))
	assert.Contains(t, out, "Your message has been sent successfully.")
	assert.Contains(t, out, `hx-trigger="load delay:5000ms"`)
	assert.NotContains(t, out, "<form")

	failed := base
	failed.State = contact.StateError
	out = render(t, ContactForm(failed))
	assert.Contains(t, out, "Something went wrong.")
}

func TestTaskBoardEditControls(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	cols := taskflow.Group([]taskflow.Task{
		{ID: "t1", Title: "Write tests", Status: taskflow.StatusTodo, Priority: taskflow.PriorityHigh, CreatedAt: now},
	})
	data := TaskFlowData{
		Page:       testPage(i18n.English, ""),
		Columns:    cols,
		Priorities: taskflow.Priorities(),
		Statuses:   taskflow.Statuses(),
	}

	out := render(t, TaskBoard(data))
	assert.Contains(t, out, "Write tests")
	assert.NotContains(t, out, "hx-delete")

	data.CanEdit = true
	out = render(t, TaskBoard(data))
	assert.Contains(t, out, `hx-delete="/taskflow/tasks/t1/"`)
	assert.Equal(t, len(taskflow.Statuses()), strings.Count(out, `class="task-column"`))
}

func TestBlogURL(t *testing.T) {
	assert.Equal(t, "/en/blog/", BlogURL(i18n.English, "all", ""))
	assert.Equal(t, "/vi/blog/?category=guitar", BlogURL(i18n.Vietnamese, "guitar", ""))
	assert.Equal(t, "/en/blog/?category=health&q=habits+now", BlogURL(i18n.English, "health", "habits now"))
}
