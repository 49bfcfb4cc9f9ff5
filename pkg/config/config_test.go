package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "host=localhost")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "host=localhost")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "writersguild", cfg.MongoDatabase)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}
