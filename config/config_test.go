package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setenv(t *testing.T, kv map[string]string) {
	t.Helper()
	t.Setenv("RENDER", "1")
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setenv(t, map[string]string{
		"ACCESS_TOKEN_SECRET":  "s3cret",
		"PORT":                 "",
		"HOTEL_TIMEZONE":       "",
		"LOG_LEVEL":            "",
		"CALENDAR_CACHE_TTL":   "",
		"DB_CONNECTION_STRING": "",
	})
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.CalendarTTL)
	assert.Empty(t, cfg.DBConnection)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	setenv(t, map[string]string{"ACCESS_TOKEN_SECRET": ""})
	_, err := LoadConfig()
	assert.Error(t, err)

	setenv(t, map[string]string{"ACCESS_TOKEN_SECRET": "x", "HOTEL_TIMEZONE": "Mars/Olympus"})
	_, err = LoadConfig()
	assert.Error(t, err)

	setenv(t, map[string]string{"ACCESS_TOKEN_SECRET": "x", "HOTEL_TIMEZONE": "Europe/Paris", "LOG_LEVEL": "loud"})
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigTimezone(t *testing.T) {
	setenv(t, map[string]string{"ACCESS_TOKEN_SECRET": "x", "HOTEL_TIMEZONE": "Europe/Paris", "LOG_LEVEL": "debug", "CALENDAR_CACHE_TTL": "60"})
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", cfg.Location.String())
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.CalendarTTL)
}
