package api

import (
	"context"
	"errors"
	"net/http"

	"playlink/internal/application"
	"playlink/pkg/config"

	"github.com/labstack/echo/v4"
)

// Server is the ingress the game backend calls to request and look up link
// codes. It is not exposed to players; a shared API key gates every route.
type Server struct {
	echo     *echo.Echo
	services *application.Service
	logger   application.Logger

	addr   string
	apiKey string
}

func NewServer(cfg *config.Config, services *application.Service, logger application.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		services: services,
		logger:   logger,
		addr:     cfg.IngressAddr,
		apiKey:   cfg.IngressAPIKey,
	}

	g := e.Group("/api/v1", s.requireAPIKey)
	g.POST("/link-codes", s.handleIssue)
	g.GET("/link-codes/:code", s.handleLookup)

	return s
}

func (s *Server) Run() error {
	s.logger.Info("Game ingress listening on %s", s.addr)
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.apiKey != "" && c.Request().Header.Get("X-API-Key") != s.apiKey {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		}
		return next(c)
	}
}

type issueRequest struct {
	PlayFabID      string `json:"playfab_id"`
	HardwareID     string `json:"hardware_id"`
	NetworkAddress string `json:"network_address"`
}

type issueResponse struct {
	Code string `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleIssue(c echo.Context) error {
	var req issueRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}
	if req.PlayFabID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "missing field", Field: "playfab_id"})
	}
	if req.NetworkAddress == "" {
		req.NetworkAddress = c.RealIP()
	}

	code, err := s.services.Links.Issue(req.PlayFabID, req.HardwareID, req.NetworkAddress)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, issueResponse{Code: code})
}

func (s *Server) handleLookup(c echo.Context) error {
	rec, err := s.services.Links.Lookup(c.Param("code"))
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) errorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, application.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, application.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("Ingress request failed: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
