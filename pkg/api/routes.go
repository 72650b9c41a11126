// routes.go - Route registration
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/health", h.HandleHealth)

	sessions := e.Group("/api/sessions")
	sessions.POST("", h.HandleCreateSession)
	sessions.GET("", h.HandleListSessions)
	sessions.DELETE("/:id", h.HandleDeleteSession)

	// Vessel inputs
	sessions.GET("/:id/spec", h.HandleGetSpec)
	sessions.PUT("/:id/spec", h.HandlePutSpec)
	sessions.GET("/:id/selection", h.HandleGetSelection)
	sessions.PUT("/:id/selection", h.HandlePutSelection)
	sessions.POST("/:id/script", h.HandleRunScript)

	// Drag gestures
	sessions.POST("/:id/pointer/down", h.HandlePointerDown)
	sessions.POST("/:id/pointer/move", h.HandlePointerMove)
	sessions.POST("/:id/pointer/up", h.HandlePointerUp)
	sessions.POST("/:id/pointer/release", h.HandleRelease)

	// Direct edits
	sessions.POST("/:id/attachments/:aid/place", h.HandlePlace)
	sessions.POST("/:id/attachments/:aid/reset", h.HandleReset)

	// Rendering
	sessions.GET("/:id/frame", h.HandleGetFrame)
	sessions.GET("/:id/scene", h.HandleGetScene)
	sessions.GET("/:id/meshes", h.HandleGetMeshes)
}

// SetupMiddleware configures error rendering, panic recovery and request
// logging.
func SetupMiddleware(e *echo.Echo, log zerolog.Logger) {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.Recover())
	e.Use(RequestLogger(log))
}

// RequestLogger logs one line per request.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			ev := log.Info()
			if res.Status >= 500 {
				ev = log.Error().Err(err)
			}
			ev.Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("took", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
