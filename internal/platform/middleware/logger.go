package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger writes one line per request. Probes of /health and /metrics are
// logged at debug so they do not drown out page traffic.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			status, level := outcome(c, err)
			if level == zerolog.InfoLevel && isProbe(req.URL.Path) {
				level = zerolog.DebugLevel
			}

			evt := logger.WithLevel(level)
			if err != nil {
				evt = evt.Err(err)
			}
			rid, _ := c.Get("request_id").(string)
			evt.Str("request_id", rid).
				Str("method", req.Method).
				Str("route", c.Path()).
				Str("path", req.URL.Path).
				Int("status", status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return err
		}
	}
}

// outcome picks the status a returned error will be answered with and the
// level it deserves. Client errors are warnings.
func outcome(c echo.Context, err error) (int, zerolog.Level) {
	if err == nil {
		return c.Response().Status, zerolog.InfoLevel
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code < 500 {
			return he.Code, zerolog.WarnLevel
		}
		return he.Code, zerolog.ErrorLevel
	}
	return 500, zerolog.ErrorLevel
}

func isProbe(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}
