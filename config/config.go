package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Port              string
	DBConnection      string
	RedisURL          string
	CalendarTTL       time.Duration
	AccessTokenSecret string
	Location          *time.Location
	LogFile           string
	LogLevel          logrus.Level
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadConfig reads the environment. A .env file is loaded first unless the
// process runs on Render, where variables come from the dashboard.
func LoadConfig() (*Config, error) {
	if os.Getenv("RENDER") == "" {
		_ = godotenv.Load()
	}
	cfg := &Config{
		Port:              getenv("PORT", "4000"),
		DBConnection:      os.Getenv("DB_CONNECTION_STRING"),
		RedisURL:          os.Getenv("REDIS_URL"),
		AccessTokenSecret: os.Getenv("ACCESS_TOKEN_SECRET"),
		LogFile:           os.Getenv("LOG_FILE"),
	}
	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET is not set")
	}

	loc, err := time.LoadLocation(getenv("HOTEL_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("HOTEL_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	level, err := logrus.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	ttl, err := strconv.Atoi(getenv("CALENDAR_CACHE_TTL", "300"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("CALENDAR_CACHE_TTL must be a positive number of seconds")
	}
	cfg.CalendarTTL = time.Duration(ttl) * time.Second
	return cfg, nil
}

// NewLogger builds the process logger. With LOG_FILE set, output goes to a
// rotated file; the returned closer must be called on shutdown.
func NewLogger(cfg *Config) (*logrus.Logger, io.Closer) {
	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.LogFile == "" {
		logger.SetOutput(os.Stdout)
		return logger, io.NopCloser(nil)
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 5,
		LocalTime:  true,
	}
	logger.SetOutput(rotated)
	return logger, rotated
}
