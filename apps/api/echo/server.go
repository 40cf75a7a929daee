package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/alert"
	"github.com/nkashama/duetrack/core/course"
	"github.com/nkashama/duetrack/core/group"
	"github.com/nkashama/duetrack/core/task"
	"github.com/nkashama/duetrack/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        user.ServiceInterface
		CourseSvc      course.ServiceInterface
		TaskSvc        task.ServiceInterface
		GroupSvc       group.ServiceInterface
		Registry       *alert.Registry
		Dispatcher     *alert.Dispatcher
		GoogleVerifier GoogleVerifier
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps       ServerDeps
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, os.Interrupt, syscall.SIGTERM)
	initJWTConfig(deps.Conf)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps)
	registerCourseAPI(v1, jwt, s.deps)
	registerTaskAPI(v1, jwt, s.deps)
	registerGroupAPI(v1, jwt, s.deps)
	registerAlertAPI(v1, s.deps)
}

func (s *Server) Start() {
	s.errCh <- s.app.Start(s.deps.Conf.Server.Addr)
}

// Errors reports a failed listener; the server is unusable afterwards.
func (s *Server) Errors() <-chan error { return s.errCh }

// ShutdownSignal fires on SIGINT/SIGTERM or when a shutdown error is caught.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdownCh }

func (s *Server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Duetrack API!")
}
