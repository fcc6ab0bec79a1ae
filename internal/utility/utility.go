package utility

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context keys shared by middleware and handlers.
const (
	ContextUserKey      = "user"
	ContextLoggerKey    = "logger"
	ContextRequestIDKey = "request_id"
)

// GetRealIP is a helper function to get the user's real IP address.
// It checks proxy headers first.
func GetRealIP(c echo.Context) string {
	// X-Forwarded-For can be a list: "client, proxy1, proxy2"
	xForwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}

	xRealIP := c.Request().Header.Get("X-Real-IP")
	if xRealIP != "" {
		return xRealIP
	}

	return c.RealIP()
}

// Logger returns the request scoped logger set by the request id middleware,
// falling back to the global logger.
func Logger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(ContextLoggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return &log.Logger
}

// JSONError writes the {"error": msg} body used by every API endpoint.
func JSONError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// IsAPIRequest reports whether the client expects JSON instead of a page.
func IsAPIRequest(c echo.Context) bool {
	r := c.Request()
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") ||
		strings.Contains(r.Header.Get("Accept"), echo.MIMEApplicationJSON)
}

// StatusFor maps an error to a status code, defaulting to 500.
func StatusFor(err error, mapping map[error]int) int {
	for target, status := range mapping {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
