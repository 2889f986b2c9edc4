// Package webserver hosts the echo server, its middleware chain and the
// authentication guards shared by the API handlers.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chetan13062004/agromate/config"
	"github.com/chetan13062004/agromate/internal/service"
	echoprom "github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
)

const apiPrefix = "/api"

// HealthFunc reports whether dependencies are reachable
type HealthFunc func(ctx context.Context) error

// Server wraps the echo instance
type Server struct {
	root   *echo.Echo
	api    *echo.Group
	auth   *service.AuthService
	config *config.AppConfig
	health HealthFunc
}

// NewServer builds the echo instance with the shared middleware chain
func NewServer(cfg *config.AppConfig, auth *service.AuthService, health HealthFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = HTTPErrorHandler
	if cfg.System.Debug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			zap.L().Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit("12M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     corsOrigins(cfg.Web.CorsOrigins),
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))
	if cfg.Web.Metrics {
		echoprom.NewPrometheus("agromate", nil).Use(e)
	}

	s := &Server{
		root:   e,
		api:    e.Group(apiPrefix),
		auth:   auth,
		config: cfg,
		health: health,
	}
	e.GET("/health", s.healthHandler)
	return s
}

func corsOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// Echo exposes the root instance (tests drive it with ServeHTTP)
func (s *Server) Echo() *echo.Echo {
	return s.root
}

// Config returns the application configuration
func (s *Server) Config() *config.AppConfig {
	return s.config
}

// Authenticated is the middleware chain of protected routes
func (s *Server) Authenticated() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{jwtMiddleware(s.auth.Secret()), loadUser(s.auth)}
}

// Protected prepends authentication to m, optionally narrowing to roles
func (s *Server) Protected(roles []string, m ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	chain := s.Authenticated()
	if len(roles) > 0 {
		chain = append(chain, RequireRole(roles...))
	}
	return append(chain, m...)
}

func (s *Server) ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.GET(path, h, m...)
}

func (s *Server) ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.POST(path, h, m...)
}

func (s *Server) ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.PUT(path, h, m...)
}

func (s *Server) ApiPATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.PATCH(path, h, m...)
}

func (s *Server) ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.DELETE(path, h, m...)
}

func (s *Server) healthHandler(c echo.Context) error {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			zap.L().Warn("health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Web.Host, s.config.Web.Port)
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infof("Starting HTTP server at %s", addr)
		if err := s.root.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	zap.S().Info("Shutting down HTTP server")
	return s.root.Shutdown(shutdownCtx)
}
