// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultSpecURL is the GitHub REST API description, the document this
// monitor was originally built to watch.
const DefaultSpecURL = "https://raw.githubusercontent.com/github/rest-api-description/main/descriptions/api.github.com/api.github.com.json"

// Config holds all runtime settings.
type Config struct {
	SpecURL        string
	StorageDir     string
	WebhookURL     string
	WebhookSecret  string
	CheckInterval  time.Duration
	LogLevel       string
	ServerHost     string
	ServerPort     int
	UseOasdiff     bool
	OasdiffPath    string
	OasdiffTimeout time.Duration
}

// Load reads the configuration from the environment. A missing .env file is
// not an error.
func Load(logger *logrus.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not loaded: %v", err)
	} else {
		logger.Info("Environment loaded from .env")
	}

	return &Config{
		SpecURL:        getenv("SPECWATCH_SPEC_URL", DefaultSpecURL),
		StorageDir:     getenv("SPECWATCH_STORAGE_DIR", "api_specs"),
		WebhookURL:     getenv("SPECWATCH_WEBHOOK_URL", "http://localhost:8000/webhook"),
		WebhookSecret:  getenv("SPECWATCH_WEBHOOK_SECRET", ""),
		CheckInterval:  time.Duration(getenvInt(logger, "SPECWATCH_CHECK_INTERVAL_MINUTES", 60)) * time.Minute,
		LogLevel:       getenv("SPECWATCH_LOG_LEVEL", "info"),
		ServerHost:     getenv("SPECWATCH_SERVER_HOST", "127.0.0.1"),
		ServerPort:     getenvInt(logger, "SPECWATCH_SERVER_PORT", 8000),
		UseOasdiff:     getenvBool(logger, "SPECWATCH_USE_OASDIFF", false),
		OasdiffPath:    getenv("SPECWATCH_OASDIFF_PATH", "oasdiff"),
		OasdiffTimeout: time.Duration(getenvInt(logger, "SPECWATCH_OASDIFF_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// ServerAddr returns the webhook server listen address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(logger *logrus.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warnf("Invalid value for %s, using default %d", key, fallback)
		return fallback
	}
	return n
}

func getenvBool(logger *logrus.Logger, key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warnf("Invalid value for %s, using default %t", key, fallback)
		return fallback
	}
	return b
}
