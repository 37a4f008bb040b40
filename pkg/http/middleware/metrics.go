package middleware

import (
	"errors"
	"net/http"
	"time"

	applogger "ForecastAPI/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HTTPObserver receives one observation per served request.
type HTTPObserver interface {
	ObserveHTTPRequest(handler, method string, status int, d time.Duration)
}

// Metrics records request metrics labelled by the route template to keep cardinality low.
// Requests to skipPath (the scrape endpoint) are not observed.
func Metrics(obs HTTPObserver, l *applogger.Logger, slowThreshold time.Duration, skipPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = "none"
			}
			if skipPath != "" && route == skipPath {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start)
			status := responseStatus(c, err)
			method := c.Request().Method

			obs.ObserveHTTPRequest(route, method, status, duration)

			if status >= http.StatusInternalServerError {
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", status),
					applogger.Duration("duration_ms", duration),
				)
			} else if slowThreshold > 0 && duration >= slowThreshold {
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", status),
					applogger.Duration("duration_ms", duration),
				)
			}
			return err
		}
	}
}

// responseStatus resolves the status the client will see, including errors not yet rendered by echo.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	if c.Response().Committed {
		return c.Response().Status
	}
	return http.StatusInternalServerError
}
