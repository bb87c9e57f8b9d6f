package folio

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/views"
)

const (
	featuredLimit = 3
	recentLimit   = 5
	relatedLimit  = 3
)

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.Server.StaticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/healthz", a.handleHealthz)
	e.GET("/metrics", a.metrics.handler())

	// Every page lives under a locale prefix; localeMiddleware has already
	// redirected anything else.
	l := e.Group("/:locale", requireLocale)
	l.GET("/", a.handleHome)
	l.GET("/about/", a.handleAbout)
	l.GET("/blog/", a.handleBlog)
	l.GET("/blog/:slug/", a.handlePost)
	l.GET("/projects/", a.handleProjects)
	l.GET("/contact/", a.handleContact)
	l.POST("/contact/", a.handleContactSubmit)

	e.GET("/taskflow/", a.handleTaskFlow)
	e.GET("/taskflow/ws", a.handleTaskFlowWS)
	e.GET("/api/taskflow/tasks", a.handleTaskAPIList)
	tf := e.Group("/taskflow/tasks", requireAdminAPI)
	tf.POST("/", a.handleTaskCreate)
	tf.POST("/:id/status/", a.handleTaskStatus)
	tf.DELETE("/:id/", a.handleTaskDelete)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	admin := e.Group("/admin", requireAdmin)
	admin.GET("/post/new/", a.handleAdminPostNew)
	admin.GET("/post/:slug/", a.handleAdminPost)
	admin.POST("/post/save/", a.handleAdminPostSave)
	admin.DELETE("/post/:slug/", a.handleAdminPostDelete)
	admin.GET("/project/new/", a.handleAdminProjectNew)
	admin.GET("/project/:id/", a.handleAdminProject)
	admin.POST("/project/save/", a.handleAdminProjectSave)
	admin.DELETE("/project/:id/", a.handleAdminProjectDelete)
	admin.GET("/messages/", a.handleAdminMessages)
	admin.DELETE("/messages/:id/", a.handleAdminMessageDelete)
	admin.GET("/images/", a.handleImageList)
	admin.POST("/images/upload/", a.handleImageUpload)
	admin.DELETE("/images/:filename/", a.handleImageDelete)
}

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	featured, err := a.Cache.Featured(ctx, featuredLimit)
	if err != nil {
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, content.Query{})
	if err != nil {
		return err
	}
	if len(posts) > recentLimit {
		posts = posts[:recentLimit]
	}
	projects, err := a.Store.ListProjects(ctx)
	if err != nil {
		return err
	}
	var featuredProjects []content.Project
	for _, p := range projects {
		if p.Featured {
			featuredProjects = append(featuredProjects, p)
		}
	}
	return Render(c, a.Views.Home(views.HomeData{
		Page:     a.page(c, "/", ""),
		Featured: featured,
		Recent:   posts,
		Projects: featuredProjects,
		Author:   a.Author(),
	}))
}

func (a *App) handleAbout(c echo.Context) error {
	return Render(c, a.Views.About(views.AboutData{
		Page:       a.page(c, "/about/", "About"),
		Author:     a.Author(),
		Categories: content.Categories(),
	}))
}

func (a *App) handleBlog(c echo.Context) error {
	ctx := c.Request().Context()
	q := content.ParseQuery(c.QueryParam("category"), c.QueryParam("q"))
	posts, err := a.Cache.ListPosts(ctx, q)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	data := views.BlogData{
		Page:       a.page(c, "/blog/", "Blog"),
		Posts:      posts,
		Query:      q,
		Categories: content.Categories(),
		Tags:       tags,
	}
	if isHTMX(c) && c.QueryParam("partial") == "results" {
		return Render(c, a.Views.BlogResults(data))
	}
	return Render(c, a.Views.Blog(data))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(ctx, slug)
	if err != nil {
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, content.Query{})
	if err != nil {
		return err
	}
	p := a.page(c, "/blog/"+post.Slug+"/", post.Title)
	p.Description = post.Excerpt
	return Render(c, a.Views.Post(views.PostData{
		Page:    p,
		Post:    post,
		Related: content.RelatedPosts(post, posts, relatedLimit),
		TOC:     markdown.TOC(post.Content),
	}))
}

func (a *App) handleProjects(c echo.Context) error {
	projects, err := a.Store.ListProjects(c.Request().Context())
	if err != nil {
		return err
	}
	status := content.ProjectStatus(c.QueryParam("status"))
	if !status.Valid() {
		status = ""
	}
	return Render(c, a.Views.Projects(views.ProjectsData{
		Page:     a.page(c, "/projects/", "Projects"),
		Projects: content.FilterProjects(projects, status),
		Status:   status,
		Statuses: content.ProjectStatuses(),
	}))
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), content.Query{})
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.Config.Server.StaticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.Config.Server.StaticDir + "/robots.txt")
}

func (a *App) handleHealthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := a.Store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	switch {
	case errors.Is(err, content.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &he):
		code = he.Code
	}
	if code == http.StatusNotFound && c.Request().Method == http.MethodGet {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, "", "Not found")))
		return
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.Error(err),
			zap.String("uri", c.Request().RequestURI),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, "", "Server error")))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
