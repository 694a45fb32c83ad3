// Package httpserver exposes the control surface the physical remote talks
// to: start/stop toggles and the status poll.
package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/session"
)

// SessionController is the subset of the session controller the HTTP layer
// drives.
type SessionController interface {
	Start(ctx context.Context) (session.Status, error)
	Stop() session.Status
	Status() session.Status
}

// StatusResponse is the shape the remote polls; it only reads sessionState.
type StatusResponse struct {
	SessionState session.Status `json:"sessionState"`
}

// ControlResponse is returned by the start and stop operations.
type ControlResponse struct {
	OK           bool           `json:"ok"`
	SessionState session.Status `json:"sessionState"`
	Error        string         `json:"error,omitempty"`
}

// Server bundles the echo router and its controller.
type Server struct {
	Router *echo.Echo
	ctrl   SessionController
}

// New constructs the HTTP server with routes.
func New(ctrl SessionController) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{Router: e, ctrl: ctrl}
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/status", s.status)
	e.POST("/start", s.start)
	e.POST("/stop", s.stop)
	return s
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{SessionState: s.ctrl.Status()})
}

// start responds exactly once per request: a session fault after this
// response has committed is only visible through subsequent status polls.
func (s *Server) start(c echo.Context) error {
	st, err := s.ctrl.Start(c.Request().Context())
	if err != nil {
		code := http.StatusBadGateway
		switch {
		case errors.Is(err, session.ErrAlreadyRunning):
			code = http.StatusConflict
		case errors.Is(err, session.ErrMissingCredentials):
			code = http.StatusInternalServerError
		}
		return c.JSON(code, ControlResponse{OK: false, SessionState: st, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, ControlResponse{OK: true, SessionState: st})
}

func (s *Server) stop(c echo.Context) error {
	st := s.ctrl.Stop()
	return c.JSON(http.StatusOK, ControlResponse{OK: true, SessionState: st})
}
