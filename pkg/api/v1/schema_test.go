package apiv1

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/parley-hq/parley/pkg/types"
)

type cachingSchemas struct {
	invalidations int
	fetches       int
}

func (c *cachingSchemas) Schema(ctx context.Context) (*types.SchemaContext, error) {
	c.fetches++
	return &types.SchemaContext{Tables: []types.TableSchema{
		{Name: "orders", Columns: []string{"id", "total"}},
	}}, nil
}

func (c *cachingSchemas) Invalidate() {
	c.invalidations++
}

func newSchemaServer(schemas *cachingSchemas) *echo.Echo {
	e := echo.New()
	NewSchemaGroup(e.Group("/api/v1/schema"), schemas, nil)
	return e
}

func TestGetSchema(t *testing.T) {
	schemas := &cachingSchemas{}
	e := newSchemaServer(schemas)

	rec, resp := doRequest(e, http.MethodGet, "/api/v1/schema", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, schemas.invalidations)
}

func TestRefreshSchemaInvalidatesCache(t *testing.T) {
	schemas := &cachingSchemas{}
	e := newSchemaServer(schemas)

	rec, resp := doRequest(e, http.MethodPost, "/api/v1/schema/refresh", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	assert.Equal(t, 1, schemas.invalidations)
	assert.Equal(t, 1, schemas.fetches)

	data, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.NotNil(t, data["tables"])
}

func TestRefreshSchemaNoDatabase(t *testing.T) {
	e := echo.New()
	NewSchemaGroup(e.Group("/api/v1/schema"), nil, nil)

	rec, resp := doRequest(e, http.MethodPost, "/api/v1/schema/refresh", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
}
