package views

import (
	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/i18n"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/taskflow"
)

// Site holds site-wide settings. Every page carries it so nothing is hardcoded.
type Site struct {
	Name        string
	URL         string // canonical base URL without trailing slash
	Description string
	Author      string
}

// Page is the data shared by every page: site settings, the active locale
// and the locale-free path of the current page.
type Page struct {
	Site        Site
	Locale      i18n.Locale
	Path        string // e.g. "/blog/"; empty for pages outside the locale tree
	Title       string
	Description string
	CSRF        string
	Admin       bool
}

// Link returns path under the page's locale.
func (p Page) Link(path string) string {
	return i18n.Localize(p.Locale, path)
}

// Canonical returns the absolute URL of the page.
func (p Page) Canonical() string {
	if p.Path == "" {
		return p.Site.URL + "/"
	}
	return p.Site.URL + p.Link(p.Path)
}

// Alternate is one entry of the locale switcher.
type Alternate struct {
	Locale i18n.Locale
	Name   string
	Href   string
	Active bool
}

// Alternates links the current page under every supported locale.
func (p Page) Alternates() []Alternate {
	path := p.Path
	if path == "" {
		path = "/"
	}
	locales := i18n.Locales()
	out := make([]Alternate, 0, len(locales))
	for _, l := range locales {
		out = append(out, Alternate{
			Locale: l,
			Name:   l.Name(),
			Href:   i18n.Localize(l, path),
			Active: l == p.Locale,
		})
	}
	return out
}

// FullTitle is the document title.
func (p Page) FullTitle() string {
	if p.Title == "" {
		return p.Site.Name
	}
	return p.Title + " | " + p.Site.Name
}

type HomeData struct {
	Page
	Featured []content.BlogPost
	Recent   []content.BlogPost
	Projects []content.Project
	Author   content.Author
}

type AboutData struct {
	Page
	Author     content.Author
	Categories []content.Category
}

// BlogData drives both the full blog page and the htmx results partial.
type BlogData struct {
	Page
	Posts      []content.BlogPost
	Query      content.Query
	Categories []content.Category
	Tags       []string
}

// Active reports whether c is the selected category.
func (d BlogData) Active(c string) bool {
	q := d.Query.Category
	if q == "" {
		q = content.CategoryAll
	}
	return q == c
}

type PostData struct {
	Page
	Post    content.BlogPost
	Related []content.BlogPost
	TOC     []markdown.Heading
}

type ProjectsData struct {
	Page
	Projects []content.Project
	Status   content.ProjectStatus
	Statuses []content.ProjectStatus
}

// ContactData is the contact form in one of its four states.
type ContactData struct {
	Page
	Form         contact.FormData
	Errors       contact.ValidationErrors
	State        contact.State
	ErrMsg       string
	ResetAfterMS int64
}

func (d ContactData) Idle() bool    { return d.State == contact.StateIdle }
func (d ContactData) Sending() bool { return d.State == contact.StateSending }
func (d ContactData) Success() bool { return d.State == contact.StateSuccess }
func (d ContactData) Failed() bool  { return d.State == contact.StateError }

type TaskFlowData struct {
	Page
	Columns    []taskflow.Column
	Priorities []taskflow.Priority
	Statuses   []taskflow.Status
	CanEdit    bool
}

type AdminLoginData struct {
	Page
	ShowError bool
}

type AdminDashboardData struct {
	Page
	Posts    []content.BlogPost
	Projects []content.Project
	Messages int
	Flash    string
}

type AdminPostData struct {
	Page
	Post       content.BlogPost
	Categories []content.Category
	IsNew      bool
	Error      string
}

type AdminProjectData struct {
	Page
	Project  content.Project
	Statuses []content.ProjectStatus
	IsNew    bool
	Error    string
}

type AdminMessagesData struct {
	Page
	Messages []contact.Message
}

type AdminImagesData struct {
	Page
	Images []content.Image
}
