package handlers

import (
	"net/http"

	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/labstack/echo/v4"
)

// HealthCheck reports liveness and how many real-time channels are open.
func HealthCheck(registry *realtime.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, channels := registry.Stats()
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "healthy",
			"service": "writers-guild",
			"realtime": echo.Map{
				"users":    users,
				"channels": channels,
			},
		})
	}
}
