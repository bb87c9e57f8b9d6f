package folio

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/taskflow"
	"github.com/eringen/folio/views"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (a *App) taskFlowData(c echo.Context) (views.TaskFlowData, error) {
	cols, err := a.Board.Columns(c.Request().Context())
	if err != nil {
		return views.TaskFlowData{}, err
	}
	return views.TaskFlowData{
		Page:       a.page(c, "", "TaskFlow"),
		Columns:    cols,
		Priorities: taskflow.Priorities(),
		Statuses:   taskflow.Statuses(),
		CanEdit:    IsAdmin(c),
	}, nil
}

func (a *App) handleTaskFlow(c echo.Context) error {
	data, err := a.taskFlowData(c)
	if err != nil {
		return err
	}
	if isHTMX(c) && c.QueryParam("partial") == "board" {
		return Render(c, a.Views.TaskBoard(data))
	}
	return Render(c, a.Views.TaskFlow(data))
}

// respondBoard answers a mutation: the refreshed board for htmx, the task as
// JSON for API clients, a redirect for plain forms.
func (a *App) respondBoard(c echo.Context, code int, task *taskflow.Task) error {
	switch {
	case isHTMX(c):
		data, err := a.taskFlowData(c)
		if err != nil {
			return err
		}
		return Render(c, a.Views.TaskBoard(data))
	case c.Request().Header.Get(echo.HeaderAccept) == echo.MIMEApplicationJSON:
		if task == nil {
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSON(code, task)
	default:
		return c.Redirect(http.StatusSeeOther, "/taskflow/")
	}
}

// taskError maps board errors to HTTP errors. A publish failure is logged and
// otherwise ignored because the change is already stored.
func (a *App) taskError(c echo.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, taskflow.ErrPublish):
		a.Logger.Warn("taskflow event not delivered", zap.Error(err))
		return nil
	case errors.Is(err, taskflow.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	case errors.Is(err, taskflow.ErrInvalidTask):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}

func (a *App) handleTaskCreate(c echo.Context) error {
	var in taskflow.NewTask
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task").SetInternal(err)
	}
	task, err := a.Board.Create(c.Request().Context(), in)
	if err := a.taskError(c, err); err != nil {
		return err
	}
	return a.respondBoard(c, http.StatusCreated, &task)
}

func (a *App) handleTaskStatus(c echo.Context) error {
	status := taskflow.Status(c.FormValue("status"))
	task, err := a.Board.SetStatus(c.Request().Context(), c.Param("id"), status)
	if err := a.taskError(c, err); err != nil {
		return err
	}
	return a.respondBoard(c, http.StatusOK, &task)
}

func (a *App) handleTaskDelete(c echo.Context) error {
	err := a.Board.Delete(c.Request().Context(), c.Param("id"))
	if err := a.taskError(c, err); err != nil {
		return err
	}
	return a.respondBoard(c, http.StatusOK, nil)
}

func (a *App) handleTaskAPIList(c echo.Context) error {
	tasks, err := a.Board.List(c.Request().Context())
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []taskflow.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

// handleTaskFlowWS streams board events to one widget as JSON text frames
// until either side goes away.
func (a *App) handleTaskFlowWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already replied.
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	events, err := a.Board.Subscribe(ctx)
	if err != nil {
		a.Logger.Warn("taskflow subscribe failed", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "unavailable"),
			time.Now().Add(wsWriteWait))
		return nil
	}

	// The read loop only handles pongs and notices the client leaving.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				return err
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}
