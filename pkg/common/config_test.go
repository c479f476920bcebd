package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-hq/parley/pkg/types"
)

func TestConfigDefaults(t *testing.T) {
	cm, err := NewConfigManagerFromBytes[types.AppConfig](nil)
	require.NoError(t, err)
	config := cm.GetConfig()

	assert.False(t, config.DebugMode)
	assert.Equal(t, 1994, config.Gateway.HTTP.Port)
	assert.Equal(t, 20, config.Pipeline.MaxTurns)
	assert.Equal(t, 50, config.Pipeline.MaxMailResults)
	assert.Equal(t, 90*time.Second, config.Pipeline.TurnTimeout)
	assert.Equal(t, "llama3.1", config.LLM.Model)
	assert.False(t, config.Mail.Enabled)
	assert.False(t, config.Database.Postgres.IsConfigured())
}

func TestConfigOverlay(t *testing.T) {
	overlay := []byte(`
database:
  postgres:
    host: db.internal
    user: parley
    database: analytics
    queryHistory: true

pipeline:
  maxMailResults: 10
  mutatingKeywords: ["merge"]

gateway:
  http:
    port: 8080
`)
	cm, err := NewConfigManagerFromBytes[types.AppConfig](overlay)
	require.NoError(t, err)
	config := cm.GetConfig()

	assert.Equal(t, "db.internal", config.Database.Postgres.Host)
	assert.True(t, config.Database.Postgres.IsConfigured())
	assert.True(t, config.Database.Postgres.QueryHistory)
	assert.Equal(t, 10, config.Pipeline.MaxMailResults)
	assert.Equal(t, []string{"merge"}, config.Pipeline.MutatingKeywords)
	assert.Equal(t, 8080, config.Gateway.HTTP.Port)

	// Untouched keys keep their defaults.
	assert.Equal(t, 5432, config.Database.Postgres.Port)
	assert.Equal(t, 20, config.Pipeline.MaxTurns)
}

func TestConfigDurationParsing(t *testing.T) {
	overlay := []byte(`
pipeline:
  turnTimeout: 2m
mail:
  requestTimeout: 15s
`)
	cm, err := NewConfigManagerFromBytes[types.AppConfig](overlay)
	require.NoError(t, err)
	config := cm.GetConfig()

	assert.Equal(t, 2*time.Minute, config.Pipeline.TurnTimeout)
	assert.Equal(t, 15*time.Second, config.Mail.RequestTimeout)
}
