package folio

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// Nothing is written when the component fails to render.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// page builds the data shared by every page for the current request. path is
// the locale-free path of the page, or "" outside the locale tree.
func (a *App) page(c echo.Context, path, title string) views.Page {
	return views.Page{
		Site:   a.Site(),
		Locale: a.localeOf(c),
		Path:   path,
		Title:  title,
		CSRF:   CsrfToken(c),
		Admin:  IsAdmin(c),
	}
}
