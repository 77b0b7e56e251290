package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SYLLABOT_LISTEN_ADDR", ":9999")
	t.Setenv("SYLLABOT_SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SYLLABOT_HUBSPOT_TOKEN", "pat-test")
	t.Setenv("SYLLABOT_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "xoxb-test", cfg.SlackBotToken)
	assert.Equal(t, "pat-test", cfg.HubSpotToken)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SYLLABOT_SESSION_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYLLABOT_SESSION_TTL")
}

func TestReadinessChecks(t *testing.T) {
	cfg := &Config{}

	err := cfg.SlackReady()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYLLABOT_SLACK_BOT_TOKEN")

	cfg.SlackBotToken = "xoxb-test"
	err = cfg.SlackReady()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYLLABOT_SLACK_SIGNING_SECRET")

	cfg.SlackSigningSecret = "sekrit"
	assert.NoError(t, cfg.SlackReady())

	assert.Error(t, cfg.HubSpotReady())
	cfg.HubSpotToken = "pat-test"
	assert.NoError(t, cfg.HubSpotReady())

	assert.Error(t, cfg.MondayReady())
	cfg.MondayToken = "monday-test"
	err = cfg.MondayReady()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYLLABOT_MONDAY_BOARD_ID")
	cfg.MondayBoardID = "b42"
	assert.NoError(t, cfg.MondayReady())
}
