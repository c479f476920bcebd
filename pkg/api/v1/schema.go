package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parley-hq/parley/pkg/gateway/services"
	"github.com/parley-hq/parley/pkg/repository"
)

// SchemaGroup exposes the accessible table schema and the query-history
// audit log.
type SchemaGroup struct {
	routerGroup *echo.Group
	schemas     services.SchemaProvider
	backend     *repository.PostgresBackend
}

func NewSchemaGroup(routerGroup *echo.Group, schemas services.SchemaProvider, backend *repository.PostgresBackend) *SchemaGroup {
	g := &SchemaGroup{
		routerGroup: routerGroup,
		schemas:     schemas,
		backend:     backend,
	}
	g.registerRoutes()
	return g
}

// schemaInvalidator is implemented by providers that cache introspection
// results and can drop them after DDL changes.
type schemaInvalidator interface {
	Invalidate()
}

func (g *SchemaGroup) registerRoutes() {
	g.routerGroup.GET("", g.GetSchema)
	g.routerGroup.POST("/refresh", g.RefreshSchema)
	g.routerGroup.GET("/history", g.GetHistory)
}

// GetSchema returns the tables the pipeline may query
func (g *SchemaGroup) GetSchema(c echo.Context) error {
	if g.schemas == nil {
		return ErrorResponse(c, http.StatusNotFound, "no database configured")
	}

	schema, err := g.schemas.Schema(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}

	return SuccessResponse(c, schema)
}

// RefreshSchema drops any cached schema and re-introspects, returning the
// fresh result. Lets operators pick up DDL changes without a restart.
func (g *SchemaGroup) RefreshSchema(c echo.Context) error {
	if g.schemas == nil {
		return ErrorResponse(c, http.StatusNotFound, "no database configured")
	}

	if inv, ok := g.schemas.(schemaInvalidator); ok {
		inv.Invalidate()
	}

	schema, err := g.schemas.Schema(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}

	return SuccessResponse(c, schema)
}

// GetHistory returns recent query audit rows
func (g *SchemaGroup) GetHistory(c echo.Context) error {
	if g.backend == nil {
		return ErrorResponse(c, http.StatusNotFound, "no database configured")
	}

	records, err := g.backend.ListQueryHistory(c.Request().Context(), 50)
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}

	return SuccessResponse(c, records)
}
