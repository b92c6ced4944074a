package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project

	"github.com/iliyamo/spiderhome/internal/repository"
)

// HealthHandler reports liveness and which storage backend serves requests.
type HealthHandler struct {
	Store repository.Store
}

// Health is used by load balancers and monitoring systems to verify that
// the service is running.  It answers 200 with the backend name, or 503
// when the selected backend stops answering pings.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	body := echo.Map{"status": "ok", "backend": h.Store.Backend()}
	if err := h.Store.Ping(ctx); err != nil {
		body["status"] = "degraded"
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	return c.JSON(http.StatusOK, body)
}
