package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "APP_ENV", "LOG_LEVEL", "LLM_NAME", "VISION_LLM_NAME",
	"GROQ_API_KEY", "GROQ_MODEL", "GROQ_VISION_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL",
	"AUDIT_TEMPERATURE", "DATA_DIR", "DATABASE_URL", "POLICY_CACHE_TTL", "WARM_POLICY_CACHE",
	"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "PGHOST", "PGPORT",
	"TELEGRAM_BOT_TOKEN", "WEBHOOK_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, "groq", c.LLMName)
	assert.Equal(t, "gemini", c.VisionLLMName)
	assert.Equal(t, "llama-3.3-70b-versatile", c.GroqModel)
	assert.Equal(t, "meta-llama/llama-4-scout-17b-16e-instruct", c.GroqVisionModel)
	assert.Equal(t, "gemini-2.5-flash", c.GeminiModel)
	assert.InDelta(t, 0.1, c.AuditTemperature, 1e-6)
	assert.Equal(t, "data", c.DataDir)
	assert.Empty(t, c.DatabaseURL)
	assert.Equal(t, 720*time.Hour, c.PolicyCacheTTL)
	assert.False(t, c.WarmPolicies)
	assert.False(t, c.IsLocal())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_NAME", "Gemini")
	t.Setenv("AUDIT_TEMPERATURE", "0")
	t.Setenv("POLICY_CACHE_TTL", "1h30m")
	t.Setenv("APP_ENV", "local")
	t.Setenv("WARM_POLICY_CACHE", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.LLMName)
	assert.Zero(t, c.AuditTemperature)
	assert.Equal(t, 90*time.Minute, c.PolicyCacheTTL)
	assert.True(t, c.IsLocal())
	assert.True(t, c.WarmPolicies)
	assert.Equal(t, "postgres://u:p@db:5432/x", c.DatabaseURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUDIT_TEMPERATURE", "hot")
	_, err := Load()
	assert.ErrorContains(t, err, "AUDIT_TEMPERATURE")

	clearEnv(t)
	t.Setenv("POLICY_CACHE_TTL", "a month")
	_, err = Load()
	assert.ErrorContains(t, err, "POLICY_CACHE_TTL")
}

func TestResolveDSNFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	t.Setenv("PGHOST", "db")

	dsn := resolveDSN()
	assert.Equal(t, "postgres://mediaudit:s3cret@db:5432/mediaudit?sslmode=disable", dsn)
	assert.Equal(t, "host=db port=5432 db=mediaudit user=mediaudit", SafeDSNSummary(dsn))
	assert.NotContains(t, SafeDSNSummary(dsn), "s3cret")
}

func TestSafeDSNSummaryNoPort(t *testing.T) {
	assert.Equal(t, "host=db db=x user=u", SafeDSNSummary("postgres://u:p@db/x"))
}
