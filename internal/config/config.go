// Package config loads gateway configuration from the environment (with
// optional .env support). Integration settings are validated at point of
// use, not at process start: a workflow that never touches Monday must not
// fail because the Monday token is absent.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	SlackBotToken      string
	SlackSigningSecret string

	HubSpotToken   string
	HubSpotBaseURL string

	MondayToken   string
	MondayBaseURL string
	MondayBoardID string
	MondayGroupID string

	ZapierTaskURL string
	ZapierNoteURL string
	ZapierSecret  string

	CacheTTL   time.Duration
	SessionTTL time.Duration
}

// Load reads .env (if present) and SYLLABOT_-prefixed environment
// variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SYLLABOT")
	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_TTL", "90s")
	v.SetDefault("SESSION_TTL", "15m")

	cacheTTL, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil {
		return nil, errors.New("SYLLABOT_CACHE_TTL is not a duration")
	}
	sessionTTL, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil {
		return nil, errors.New("SYLLABOT_SESSION_TTL is not a duration")
	}

	return &Config{
		ListenAddr:         v.GetString("LISTEN_ADDR"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		SlackBotToken:      v.GetString("SLACK_BOT_TOKEN"),
		SlackSigningSecret: v.GetString("SLACK_SIGNING_SECRET"),
		HubSpotToken:       v.GetString("HUBSPOT_TOKEN"),
		HubSpotBaseURL:     v.GetString("HUBSPOT_BASE_URL"),
		MondayToken:        v.GetString("MONDAY_TOKEN"),
		MondayBaseURL:      v.GetString("MONDAY_BASE_URL"),
		MondayBoardID:      v.GetString("MONDAY_BOARD_ID"),
		MondayGroupID:      v.GetString("MONDAY_GROUP_ID"),
		ZapierTaskURL:      v.GetString("ZAPIER_TASK_URL"),
		ZapierNoteURL:      v.GetString("ZAPIER_NOTE_URL"),
		ZapierSecret:       v.GetString("ZAPIER_SECRET"),
		CacheTTL:           cacheTTL,
		SessionTTL:         sessionTTL,
	}, nil
}

// SlackReady reports whether the Slack transport can be served at all.
func (c *Config) SlackReady() error {
	if c.SlackBotToken == "" {
		return errors.New("missing slack bot token (set SYLLABOT_SLACK_BOT_TOKEN)")
	}
	if c.SlackSigningSecret == "" {
		return errors.New("missing slack signing secret (set SYLLABOT_SLACK_SIGNING_SECRET)")
	}
	return nil
}

// HubSpotReady reports whether the note workflow can reach HubSpot.
func (c *Config) HubSpotReady() error {
	if c.HubSpotToken == "" {
		return errors.New("missing hubspot token (set SYLLABOT_HUBSPOT_TOKEN)")
	}
	return nil
}

// MondayReady reports whether the task workflow can reach Monday.
func (c *Config) MondayReady() error {
	if c.MondayToken == "" {
		return errors.New("missing monday token (set SYLLABOT_MONDAY_TOKEN)")
	}
	if c.MondayBoardID == "" {
		return errors.New("missing monday board id (set SYLLABOT_MONDAY_BOARD_ID)")
	}
	return nil
}
