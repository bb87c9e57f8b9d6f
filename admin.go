package folio

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/views"
)

const dateLayout = "2006-01-02"

// formError is a message shown to the admin next to the form.
type formError string

func (e formError) Error() string { return string(e) }

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(views.AdminLoginData{Page: a.page(c, "", "Admin")}))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.Admin.Password)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("admin login failed", zap.String("remote_ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(views.AdminLoginData{
		Page:      a.page(c, "", "Admin"),
		ShowError: true,
	}))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	posts, err := a.Store.ListAllPosts(ctx)
	if err != nil {
		return err
	}
	projects, err := a.Store.ListProjects(ctx)
	if err != nil {
		return err
	}
	messages, err := a.Store.ListContactMessages(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(views.AdminDashboardData{
		Page:     a.page(c, "", "Dashboard"),
		Posts:    posts,
		Projects: projects,
		Messages: len(messages),
		Flash:    msg,
	}))
}

// removed answers an htmx delete with an empty body so the row disappears.
func removed(c echo.Context, fallback string) error {
	if isHTMX(c) {
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, fallback)
}

// --- posts ---

func (a *App) postForm(c echo.Context, post content.BlogPost, isNew bool, msg string) views.AdminPostData {
	return views.AdminPostData{
		Page:       a.page(c, "", "Edit post"),
		Post:       post,
		Categories: content.Categories(),
		IsNew:      isNew,
		Error:      msg,
	}
}

func (a *App) handleAdminPostNew(c echo.Context) error {
	post := content.BlogPost{
		Category:    content.CategoryTechnology,
		Author:      a.Author(),
		PublishedAt: time.Now(),
	}
	return Render(c, a.Views.AdminPost(a.postForm(c, post, true, "")))
}

func (a *App) handleAdminPost(c echo.Context) error {
	post, err := a.Store.GetPostAny(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminPost(a.postForm(c, post, false, "")))
}

// parsePostForm reads the post editor. The returned post may still fail
// BlogPost.Validate.
func (a *App) parsePostForm(c echo.Context) (content.BlogPost, error) {
	title := strings.TrimSpace(c.FormValue("title"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = content.Slugify(title)
	}
	post := content.BlogPost{
		Title:      title,
		Slug:       slug,
		Excerpt:    strings.TrimSpace(c.FormValue("excerpt")),
		Content:    c.FormValue("content"),
		Category:   content.Category(c.FormValue("category")),
		Tags:       content.NormalizeTags(strings.Split(c.FormValue("tags"), ",")),
		Author:     a.Author(),
		CoverImage: strings.TrimSpace(c.FormValue("cover_image")),
		UpdatedAt:  time.Now().UTC(),
		Featured:   c.FormValue("featured") != "",
		Published:  c.FormValue("published") != "",
	}
	date := strings.TrimSpace(c.FormValue("date"))
	if date == "" {
		post.PublishedAt = time.Now().UTC()
	} else {
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return post, formError("Invalid date format. Use YYYY-MM-DD.")
		}
		post.PublishedAt = t
	}
	if post.CoverImage != "" && markdown.SafeURL(post.CoverImage) == "" {
		return post, formError("Cover image must be a site path or an http(s) URL.")
	}
	if post.Slug == "" {
		return post, formError("Slug is required. Add a title or slug.")
	}
	return post, post.Validate()
}

func (a *App) handleAdminPostSave(c echo.Context) error {
	ctx := c.Request().Context()
	original := strings.TrimSpace(c.FormValue("original_slug"))
	post, err := a.parsePostForm(c)
	if err == nil {
		err = a.Store.SavePost(ctx, post)
	}
	if err != nil {
		if errors.Is(err, content.ErrInvalidCategory) {
			err = formError("Choose one of the listed categories.")
		}
		return RenderStatus(c, http.StatusUnprocessableEntity,
			a.Views.AdminPost(a.postForm(c, post, original == "", err.Error())))
	}
	if original != "" && original != post.Slug {
		if err := a.Store.DeletePost(ctx, original); err != nil {
			return err
		}
	}
	a.Cache.Invalidate()
	a.Logger.Info("post saved", zap.String("slug", post.Slug), zap.Bool("published", post.Published))
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=Post+saved.")
}

func (a *App) handleAdminPostDelete(c echo.Context) error {
	if err := a.Store.DeletePost(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return removed(c, "/admin/?msg=Post+deleted.")
}

// --- projects ---

func (a *App) projectForm(c echo.Context, p content.Project, isNew bool, msg string) views.AdminProjectData {
	return views.AdminProjectData{
		Page:     a.page(c, "", "Edit project"),
		Project:  p,
		Statuses: content.ProjectStatuses(),
		IsNew:    isNew,
		Error:    msg,
	}
}

func (a *App) handleAdminProjectNew(c echo.Context) error {
	p := content.Project{Status: content.StatusPlanned, StartDate: time.Now()}
	return Render(c, a.Views.AdminProject(a.projectForm(c, p, true, "")))
}

func (a *App) handleAdminProject(c echo.Context) error {
	p, err := a.Store.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminProject(a.projectForm(c, p, false, "")))
}

func parseProjectForm(c echo.Context) (content.Project, error) {
	title := strings.TrimSpace(c.FormValue("title"))
	id := strings.TrimSpace(c.FormValue("id"))
	if id == "" {
		id = content.Slugify(title)
	}
	var techs []string
	for _, t := range strings.Split(c.FormValue("technologies"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			techs = append(techs, t)
		}
	}
	p := content.Project{
		ID:              id,
		Title:           title,
		Description:     strings.TrimSpace(c.FormValue("description")),
		LongDescription: c.FormValue("long_description"),
		Technologies:    techs,
		Image:           strings.TrimSpace(c.FormValue("image")),
		DemoURL:         strings.TrimSpace(c.FormValue("demo_url")),
		GitHubURL:       strings.TrimSpace(c.FormValue("github_url")),
		Featured:        c.FormValue("featured") != "",
		Status:          content.ProjectStatus(c.FormValue("status")),
		StartDate:       time.Now().UTC(),
	}
	if s := strings.TrimSpace(c.FormValue("start_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return p, formError("Invalid start date. Use YYYY-MM-DD.")
		}
		p.StartDate = t
	}
	if s := strings.TrimSpace(c.FormValue("end_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return p, formError("Invalid end date. Use YYYY-MM-DD.")
		}
		p.EndDate = &t
	}
	for _, u := range []string{p.Image, p.DemoURL, p.GitHubURL} {
		if u != "" && markdown.SafeURL(u) == "" {
			return p, formError("Links must be site paths or http(s) URLs.")
		}
	}
	return p, p.Validate()
}

func (a *App) handleAdminProjectSave(c echo.Context) error {
	p, err := parseProjectForm(c)
	if err == nil {
		err = a.Store.SaveProject(c.Request().Context(), p)
	}
	if err != nil {
		return RenderStatus(c, http.StatusUnprocessableEntity,
			a.Views.AdminProject(a.projectForm(c, p, true, err.Error())))
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=Project+saved.")
}

func (a *App) handleAdminProjectDelete(c echo.Context) error {
	if err := a.Store.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return removed(c, "/admin/?msg=Project+deleted.")
}

// --- contact messages ---

func (a *App) handleAdminMessages(c echo.Context) error {
	msgs, err := a.Store.ListContactMessages(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminMessages(views.AdminMessagesData{
		Page:     a.page(c, "", "Messages"),
		Messages: msgs,
	}))
}

func (a *App) handleAdminMessageDelete(c echo.Context) error {
	if err := a.Store.DeleteContactMessage(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return removed(c, "/admin/messages/")
}
