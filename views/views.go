// Package views renders the site's pages. Templates are embedded html/template
// files exposed to handlers as templ.Components.
package views

import (
	"embed"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/i18n"
	"github.com/eringen/folio/markdown"
)

//go:embed templates
var templatesFS embed.FS

var funcs = template.FuncMap{
	"markdown": markdown.HTML,
	"date":     func(t time.Time) string { return t.Format("January 2, 2006") },
	"isoDate":  func(t time.Time) string { return t.Format("2006-01-02") },
	"join":     strings.Join,
	"locales":  i18n.Locales,
	"localize": func(l i18n.Locale, path string) string { return i18n.Localize(l, path) },
	"lower":    strings.ToLower,
	"blogURL":  BlogURL,
	"dict":     dict,
}

var (
	base  *template.Template
	pages = map[string]*template.Template{}
)

func init() {
	base = template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS,
		"templates/layout.html", "templates/partials.html"))
	entries, err := templatesFS.ReadDir("templates/pages")
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".html")
		t := template.Must(template.Must(base.Clone()).ParseFS(templatesFS, "templates/pages/"+e.Name()))
		pages[name] = t.Lookup("layout")
	}
}

func page(name string, data any) templ.Component {
	t, ok := pages[name]
	if !ok {
		panic("views: unknown page " + name)
	}
	return templ.FromGoHTML(t, data)
}

func partial(name string, data any) templ.Component {
	return templ.FromGoHTML(base.Lookup(name), data)
}

// BlogURL returns the blog listing path for locale l with the given filter.
func BlogURL(l i18n.Locale, category, search string) string {
	v := url.Values{}
	if category != "" && category != content.CategoryAll {
		v.Set("category", category)
	}
	if search != "" {
		v.Set("q", search)
	}
	path := i18n.Localize(l, "/blog/")
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}

func Home(d HomeData) templ.Component         { return page("home", d) }
func About(d AboutData) templ.Component       { return page("about", d) }
func Blog(d BlogData) templ.Component         { return page("blog", d) }
func BlogResults(d BlogData) templ.Component  { return partial("blog-results", d) }
func Post(d PostData) templ.Component         { return page("post", d) }
func Projects(d ProjectsData) templ.Component { return page("projects", d) }
func Contact(d ContactData) templ.Component   { return page("contact", d) }

// ContactForm renders only the form region, used by htmx swaps.
func ContactForm(d ContactData) templ.Component { return partial("contact-form", d) }

func TaskFlow(d TaskFlowData) templ.Component  { return page("taskflow", d) }
func TaskBoard(d TaskFlowData) templ.Component { return partial("task-board", d) }

func NotFound(p Page) templ.Component    { return page("not-found", p) }
func ServerError(p Page) templ.Component { return page("server-error", p) }

func AdminLogin(d AdminLoginData) templ.Component         { return page("admin-login", d) }
func AdminDashboard(d AdminDashboardData) templ.Component { return page("admin-dashboard", d) }
func AdminPost(d AdminPostData) templ.Component           { return page("admin-post", d) }
func AdminProject(d AdminProjectData) templ.Component     { return page("admin-project", d) }
func AdminMessages(d AdminMessagesData) templ.Component   { return page("admin-messages", d) }
func AdminImages(d AdminImagesData) templ.Component       { return page("admin-images", d) }
