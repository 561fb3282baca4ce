// Package echoportal serves the task portal: the guarded views, the login flow and the
// notification feed, all backed by the REST API client.
package echoportal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/guard"
	"github.com/EduardoBullon/SEM16-PC04/core/notify"
	"github.com/EduardoBullon/SEM16-PC04/core/role"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/services/backend"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		Sessions      *session.Store
		Backend       *backend.Client
		Notifications *notify.Center
		Navigator     *Navigator // optional
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
		Navigator() *Navigator
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		guard    *guard.Guard
		nav      *Navigator
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	if deps.Logger == nil {
		deps.Logger = core.NopLogger{}
	}
	nav := deps.Navigator
	if nav == nil {
		nav = NewNavigator()
	}
	s := &server{
		deps:     deps,
		app:      echo.New(),
		guard:    guard.New(deps.Sessions),
		nav:      nav,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Sessions, s.deps.Notifications)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/unauthorized", unauthorized)

	registerAuthRoutes(s.app, s)
	registerNotificationRoutes(s.app, s.deps.Notifications)

	authed := s.requireSession("")
	teacher := s.requireSession(role.Teacher)
	registerTaskRoutes(s.app, s, authed, teacher)
	registerSubmissionRoutes(s.app, s, authed, teacher)
}

func (s *server) Start() {
	s.deps.Logger.Info("portal listening on " + s.deps.Conf.Server.Address)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	return s.shutdown
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Navigator() *Navigator {
	return s.nav
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.Redirect(http.StatusSeeOther, "/tasks")
}

func unauthorized(ctx echo.Context) error {
	return ctx.JSON(http.StatusForbidden, echo.Map{
		"page":    "unauthorized",
		"message": "you do not have permission to view this page",
	})
}
