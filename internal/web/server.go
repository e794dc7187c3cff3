package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/platform/middleware"
)

const csrfContextKey = "csrf"

type ServerConfig struct {
	Logger         zerolog.Logger
	Registry       *prometheus.Registry
	RateLimit      middleware.RateLimitConfig
	RequestTimeout time.Duration
	BodyLimit      string
	// CSRF protects the form routes with a double-submit token.
	CSRF    bool
	Version string
	// API, when set, serves the patient REST API under /api.
	API *APIHandler
	// Ready lists the dependency checks behind /health/ready.
	Ready map[string]Check
}

// NewServer assembles the echo instance: middleware, the UI routes, the
// optional demo API, health and metrics.
func NewServer(h *Handler, cfg ServerConfig) (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = errorHandler(cfg.Logger)

	e.Use(middleware.Recovery(cfg.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(cfg.Logger))
	e.Use(middleware.SecurityHeaders())
	if cfg.Registry != nil {
		e.Use(middleware.Metrics(cfg.Registry))
	}
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		e.Use(middleware.RateLimit(cfg.RateLimit))
	}
	if cfg.CSRF {
		e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/api/")
			},
			TokenLookup:    "form:_csrf",
			ContextKey:     csrfContextKey,
			CookieName:     "_csrf",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": cfg.Version})
	})
	e.GET("/health/ready", ReadyHandler(cfg.Ready))
	if cfg.Registry != nil {
		e.GET("/metrics", middleware.MetricsHandler(cfg.Registry))
	}

	h.RegisterRoutes(e)
	if cfg.API != nil {
		cfg.API.RegisterRoutes(e.Group("/api"))
	}
	return e, nil
}

// errorHandler answers API and JSON clients with {"error": message} and
// browsers with the error page.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		req := c.Request()
		var werr error
		switch {
		case req.Method == http.MethodHead:
			werr = c.NoContent(code)
		case strings.HasPrefix(req.URL.Path, "/api/") || strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON):
			werr = c.JSON(code, map[string]string{"error": msg})
		default:
			werr = c.Render(code, "error", errorPage{Title: msg})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return nil
}
