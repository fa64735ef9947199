package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "prep")

	Load()

	assert.Equal(t, "8080", AppConfig.APIPort)
	assert.Equal(t, 72*time.Hour, AppConfig.JWTExp)
	assert.Equal(t, 30*24*time.Hour, AppConfig.CommunityPostTTL)
	assert.Contains(t, AppConfig.DBConnStr, "host=db.internal")
	assert.Contains(t, AppConfig.DBConnStr, "dbname=prep")
	assert.False(t, AppConfig.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("EVALUATOR_TIMEOUT", "5s")
	t.Setenv("EXECUTION_MAX_ATTEMPTS", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("APP_ENV", "production")

	Load()

	assert.Equal(t, "9000", AppConfig.APIPort)
	assert.Equal(t, 5*time.Second, AppConfig.EvaluatorTimeout)
	assert.Equal(t, 7, AppConfig.ExecutionMaxAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, AppConfig.AllowedOrigins)
	assert.True(t, AppConfig.IsProduction())
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	assert.Equal(t, 3, getEnvAsInt("REDIS_DB", 3))
}
