package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "STORE_DRIVER", "CACHE_BACKEND", "COMMENT_MAX_DEPTH", "AGGREGATION_TIMEOUT_MS", "CACHE_OP_TIMEOUT_MS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, StoreMySQL, cfg.StoreDriver)
	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.Equal(t, 3, cfg.CommentMaxDepth)
	assert.Equal(t, 500*time.Millisecond, cfg.AggregationLimit)
	assert.Equal(t, 200*time.Millisecond, cfg.CacheOpTimeout)
	assert.True(t, cfg.AggregationOn)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("COMMENT_MAX_DEPTH", "5")
	t.Setenv("AGGREGATION_ENABLED", "false")
	t.Setenv("CACHE_DB", "not-a-number")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg := Load()
	assert.Equal(t, "staging", cfg.AppEnv)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, 5, cfg.CommentMaxDepth)
	assert.False(t, cfg.AggregationOn)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 0.25, cfg.Otel.SampleRatio)
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQL{Host: "db", Port: "3306", User: "board", Pass: "secret", Name: "board"}.DSN()
	require.Contains(t, dsn, "board:secret@tcp(db:3306)/board")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")
}
