package folio

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/views"
)

func (a *App) contactData(c echo.Context) views.ContactData {
	return views.ContactData{
		Page:         a.page(c, "/contact/", "Contact"),
		State:        contact.StateIdle,
		ResetAfterMS: a.Config.Contact.ResetAfter.Milliseconds(),
	}
}

func (a *App) renderContact(c echo.Context, code int, data views.ContactData) error {
	if isHTMX(c) {
		return RenderStatus(c, code, a.Views.ContactForm(data))
	}
	return RenderStatus(c, code, a.Views.Contact(data))
}

// handleContact renders the idle form. The success and error fragments
// request it again with partial=form once their reset delay has passed.
func (a *App) handleContact(c echo.Context) error {
	data := a.contactData(c)
	if isHTMX(c) && c.QueryParam("partial") == "form" {
		return Render(c, a.Views.ContactForm(data))
	}
	return Render(c, a.Views.Contact(data))
}

// handleContactSubmit runs one submission through a fresh state machine:
// validate, record, deliver. The rendered state is where the machine ended up.
func (a *App) handleContactSubmit(c echo.Context) error {
	ip := c.RealIP()
	if !a.contactLimiter.Allow(ip) {
		a.metrics.contactSubmitted.WithLabelValues("throttled").Inc()
		return c.String(http.StatusTooManyRequests, "Too many messages. Please wait a minute and try again.")
	}

	var form contact.FormData
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}

	logger := a.Logger.With(zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
	m := contact.NewMachine(
		contact.Recorder{Store: a.Store, Next: a.sender},
		contact.WithResetAfter(a.Config.Contact.ResetAfter),
		contact.WithObserver(func(from, to contact.State) {
			logger.Debug("contact state", zap.Stringer("from", from), zap.Stringer("to", to))
			switch to {
			case contact.StateSuccess:
				a.metrics.contactSubmitted.WithLabelValues("success").Inc()
			case contact.StateError:
				a.metrics.contactSubmitted.WithLabelValues("error").Inc()
			}
		}),
	)
	defer m.Close()

	ctx := contact.WithRemoteIP(c.Request().Context(), ip)
	err := m.Submit(ctx, form)

	data := a.contactData(c)
	data.State = m.State()
	var invalid contact.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		a.metrics.contactSubmitted.WithLabelValues("invalid").Inc()
		data.Form = form.Normalize()
		data.Errors = invalid
		code := http.StatusUnprocessableEntity
		if isHTMX(c) {
			// htmx only swaps 2xx responses.
			code = http.StatusOK
		}
		return a.renderContact(c, code, data)
	case err != nil:
		logger.Error("contact delivery failed", zap.Error(err), zap.String("remote_ip", ip))
		data.Form = form.Normalize()
		return a.renderContact(c, http.StatusOK, data)
	}
	logger.Info("contact message accepted", zap.String("remote_ip", ip))
	return a.renderContact(c, http.StatusOK, data)
}
