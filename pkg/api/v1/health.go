package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/parley-hq/parley/pkg/repository"
)

type HealthGroup struct {
	backend     *repository.PostgresBackend
	routerGroup *echo.Group
}

// NewHealthGroup registers the health endpoint. backend may be nil when no
// database is configured; the gateway is then healthy on its own.
func NewHealthGroup(g *echo.Group, backend *repository.PostgresBackend) *HealthGroup {
	group := &HealthGroup{routerGroup: g, backend: backend}

	g.GET("", group.HealthCheck)

	return group
}

func (h *HealthGroup) HealthCheck(c echo.Context) error {
	if h.backend != nil {
		if err := h.backend.Ping(c.Request().Context()); err != nil {
			log.Error().Err(err).Msg("health check failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"status": "not ok",
				"error":  err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
