package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// probePaths are polled by orchestrators every few seconds. Only their first
// success, and every failure, is logged.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestID returns the id RequestLog assigned to the request, or "".
func RequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header and echo context.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		healthy = make(map[string]bool)
	)

	// shouldLog reports whether a probe result is worth a log line and
	// records it. A failure re-arms logging of the next success.
	shouldLog := func(path string, ok bool) bool {
		if _, probe := probePaths[path]; !probe {
			return true
		}
		mu.Lock()
		defer mu.Unlock()

		if !ok {
			healthy[path] = false
			return true
		}
		if healthy[path] {
			return false
		}
		healthy[path] = true
		return true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set(requestIDKey, reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := responseStatus(c, err)
			if !shouldLog(path, status < 400) {
				return err
			}

			level := slog.LevelInfo
			switch _, probe := probePaths[path]; {
			case status >= 500 && !probe:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			log.Log(c.Request().Context(), level, "request",
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes_out", c.Response().Size,
				"remote_ip", c.RealIP(),
				"request_id", reqID,
			)

			return err
		}
	}
}
