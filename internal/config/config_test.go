package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "app",
		"DB_HOST":                "localhost",
		"DB_PORT":                "3306",
		"DB_NAME":                "lending",
		"JWT_SECRET":             "secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST":            "10",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_LOCK_WAIT_TIMEOUT_SEC", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 3*time.Second, cfg.DB.LockWaitTimeout)
	assert.Equal(t, "", cfg.DB.Pass)
	assert.False(t, cfg.IsDev())
}

func TestLoadReportsAllProblems(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BCRYPT_COST", "ten")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing JWT_SECRET")
	assert.Contains(t, err.Error(), `invalid int for BCRYPT_COST: "ten"`)
}

func TestLoadEngineConfig(t *testing.T) {
	t.Setenv("RESERVATION_STRICT_TRANSITIONS", "yes")
	t.Setenv("RESERVATION_TX_TIMEOUT", "-1s")
	c := LoadEngineConfig()
	assert.True(t, c.StrictTransitions)
	assert.Equal(t, 5*time.Second, c.TxTimeout)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 10*time.Second, c.TTL)
	assert.Equal(t, "ip_user_route", c.KeyStrategy)
}

func TestLoadQueueAndRedisConfig(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://broker/")
	t.Setenv("QUEUE_ENABLED", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	q := LoadQueueConfig()
	assert.Equal(t, "amqp://broker/", q.URL)
	assert.Equal(t, "equipment.requests", q.Queue)
	assert.False(t, q.Enabled)
	assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)
}
