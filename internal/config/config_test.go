package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CHECKERS_SERVER_URL", "CHECKERS_REQUEST_TIMEOUT_MS", "CHECKERS_FETCH_RETRY",
		"CHECKERS_MAX_CONNS", "CHECKERS_HEADERS", "REDIS_URL", "CHECKERS_SESSION_ID",
		"CHECKERS_JOURNAL_LIMIT", "CHECKERS_JOURNAL_TTL_SEC", "CHECKERS_MESSAGES_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:6969", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.FetchRetry)
	assert.Equal(t, 8, cfg.MaxConns)
	assert.Empty(t, cfg.Headers)
	assert.False(t, cfg.JournalEnabled())
	assert.NotEmpty(t, cfg.SessionID)
	assert.Equal(t, 200, cfg.JournalLimit)
	assert.Equal(t, 24*time.Hour, cfg.JournalTTL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHECKERS_SERVER_URL", " https://checkers.example.com/ ")
	t.Setenv("CHECKERS_REQUEST_TIMEOUT_MS", "750")
	t.Setenv("CHECKERS_FETCH_RETRY", "5")
	t.Setenv("CHECKERS_MAX_CONNS", "-1")
	t.Setenv("CHECKERS_HEADERS", "X-Player=alice, Authorization = Bearer t ,")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("CHECKERS_SESSION_ID", "table-7")
	t.Setenv("CHECKERS_JOURNAL_TTL_SEC", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://checkers.example.com", cfg.ServerURL)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.FetchRetry)
	assert.Equal(t, 8, cfg.MaxConns, "invalid values keep the default")
	assert.Equal(t, map[string]string{"X-Player": "alice", "Authorization": "Bearer t"}, cfg.Headers)
	assert.True(t, cfg.JournalEnabled())
	assert.Equal(t, "table-7", cfg.SessionID)
	assert.Equal(t, time.Minute, cfg.JournalTTL)
}

func TestLoadRejectsBadServerURL(t *testing.T) {
	for _, raw := range []string{"ftp://host", "localhost:6969", "http://"} {
		clearEnv(t)
		t.Setenv("CHECKERS_SERVER_URL", raw)
		_, err := Load()
		assert.Error(t, err, raw)
	}
}

func TestLoadRejectsBadHeaders(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHECKERS_HEADERS", "novalue")
	_, err := Load()
	assert.ErrorContains(t, err, "CHECKERS_HEADERS")
}
