// Package folio is a personal blog and portfolio server built with Go, Echo
// and templ. It serves localized pages, a contact form, the TaskFlow board,
// an admin dashboard and an RSS feed out of a single SQLite database.
//
// Pages are rendered through the ViewFuncs struct so a site can swap any
// template while folio keeps the handler logic, middleware and storage.
package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/logging"
	"github.com/eringen/folio/taskflow"
	"github.com/eringen/folio/views"
)

// ViewFuncs holds the components the handlers render.
type ViewFuncs struct {
	Home           func(views.HomeData) templ.Component
	About          func(views.AboutData) templ.Component
	Blog           func(views.BlogData) templ.Component
	BlogResults    func(views.BlogData) templ.Component
	Post           func(views.PostData) templ.Component
	Projects       func(views.ProjectsData) templ.Component
	Contact        func(views.ContactData) templ.Component
	ContactForm    func(views.ContactData) templ.Component
	TaskFlow       func(views.TaskFlowData) templ.Component
	TaskBoard      func(views.TaskFlowData) templ.Component
	AdminLogin     func(views.AdminLoginData) templ.Component
	AdminDashboard func(views.AdminDashboardData) templ.Component
	AdminPost      func(views.AdminPostData) templ.Component
	AdminProject   func(views.AdminProjectData) templ.Component
	AdminMessages  func(views.AdminMessagesData) templ.Component
	AdminImages    func(views.AdminImagesData) templ.Component
	NotFound       func(views.Page) templ.Component
	ServerError    func(views.Page) templ.Component
}

// DefaultViews returns the embedded templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           views.Home,
		About:          views.About,
		Blog:           views.Blog,
		BlogResults:    views.BlogResults,
		Post:           views.Post,
		Projects:       views.Projects,
		Contact:        views.Contact,
		ContactForm:    views.ContactForm,
		TaskFlow:       views.TaskFlow,
		TaskBoard:      views.TaskBoard,
		AdminLogin:     views.AdminLogin,
		AdminDashboard: views.AdminDashboard,
		AdminPost:      views.AdminPost,
		AdminProject:   views.AdminProject,
		AdminMessages:  views.AdminMessages,
		AdminImages:    views.AdminImages,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
	}
}

// App is the central folio application. It wires together the store, cache,
// TaskFlow board, handlers, middleware and templates.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Board  *taskflow.Board
	Views  ViewFuncs
	Logger *zap.Logger

	broker         taskflow.Broker
	sender         contact.Sender
	loginLimiter   *LoginLimiter
	contactLimiter *RateLimiter
	metrics        *metrics
	customRoutes   []func(*App)
	ready          bool
}

// New creates an App from cfg. Missing settings are filled with defaults.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  DefaultViews(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the store and broker and registers middleware and routes.
// Start calls it; tests call it directly and drive a.Echo with httptest.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if a.Logger == nil {
		logger, err := logging.New(a.Config.Log)
		if err != nil {
			return fmt.Errorf("folio: init logger: %w", err)
		}
		a.Logger = logger
	}

	store, err := NewStore(a.Config.Database.Path)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store
	if a.Config.Database.Seed {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		seeded, err := a.Store.Seed(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("folio: seed: %w", err)
		}
		if seeded {
			a.Logger.Info("seeded sample content", zap.String("database", a.Config.Database.Path))
		}
	}

	a.Cache = NewPostCache(a.Store, a.Config.Server.PostCacheTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.contactLimiter = NewRateLimiter(a.Config.Contact.RatePerMinute, a.Config.Contact.Burst, DefaultBucketIdle)
	a.metrics = newMetrics()

	if a.broker == nil {
		broker, err := a.newBroker()
		if err != nil {
			return fmt.Errorf("folio: init taskflow broker: %w", err)
		}
		a.broker = broker
	}
	a.Board = taskflow.NewBoard(a.Store, countingBroker{Broker: a.broker, events: a.metrics.taskEvents})

	if a.sender == nil {
		a.sender = a.newContactSender()
	}

	a.Echo.JSONSerializer = jsonSerializer{}
	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

func (a *App) newBroker() (taskflow.Broker, error) {
	switch a.Config.TaskFlow.Broker {
	case "nats":
		b, err := taskflow.DialNATS(a.Config.TaskFlow.NATSURL, a.Config.TaskFlow.Subject)
		if err != nil {
			return nil, err
		}
		a.Logger.Info("taskflow broker connected",
			zap.String("url", a.Config.TaskFlow.NATSURL),
			zap.String("subject", b.Subject()))
		return b, nil
	default:
		return taskflow.NewMemoryBroker(taskflow.DefaultSubscriberBuffer), nil
	}
}

func (a *App) newContactSender() contact.Sender {
	if a.Config.Contact.Sender == "smtp" {
		return contact.SMTPSender{
			Addr:     a.Config.Contact.SMTPAddr,
			Username: a.Config.Contact.SMTPUsername,
			Password: a.Config.Contact.SMTPPassword,
			From:     a.Config.Contact.SMTPFrom,
			To:       a.Config.Contact.SMTPTo,
		}
	}
	return contact.Simulated{Delay: a.Config.Contact.SendDelay}
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if a.Config.Admin.Password == "" {
		return errors.New("folio: admin.password is required")
	}
	if a.Config.Admin.SessionSecret == "" {
		return errors.New("folio: admin.session_secret is required")
	}
	if err := a.Setup(); err != nil {
		return err
	}
	a.Logger.Info("listening", zap.String("addr", a.Config.Server.Addr), zap.String("url", a.Config.Site.URL))
	if err := a.Echo.Start(a.Config.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones up to ctx's
// deadline and releases every resource.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var errs []error
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.contactLimiter != nil {
		a.contactLimiter.Close()
	}
	if a.broker != nil {
		errs = append(errs, a.broker.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.Logger != nil {
		errs = append(errs, logging.Sync(a.Logger))
	}
	return errors.Join(errs...)
}

// Site returns the site settings handed to every page.
func (a *App) Site() views.Site {
	return views.Site{
		Name:        a.Config.Site.Name,
		URL:         a.Config.Site.URL,
		Description: a.Config.Site.Description,
		Author:      a.Config.Site.Author,
	}
}

// Author is the credited author of posts and the subject of the about page.
func (a *App) Author() content.Author {
	author := content.DefaultAuthor
	if a.Config.Site.Author != "" {
		author.Name = a.Config.Site.Author
	}
	return author
}
