// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Config holds all application configuration.
type Config struct {
	Port     string // ops HTTP port; empty disables the ops server
	OpsToken string
	DBPath   string

	// OpsAllowedOrigins lists browser origins allowed to call the ops API.
	OpsAllowedOrigins []string

	TelegramToken  string
	BotMaxRoutines int

	Catalog CatalogConfig
	Log     LogConfig

	ConversationLog ConversationLogConfig
}

// CatalogConfig controls the search scraper and the catalog API client.
type CatalogConfig struct {
	SearchURL         string
	Site              string
	APIURL            string
	Token             string
	MirrorURLTemplate string // {kind} and {id} are substituted
	HTTPTimeout       time.Duration
	RetryAttempts     int
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      slog.Level
	File       string // optional rotated JSON log file
	MaxSizeMB  int
	MaxBackups int
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables and secret files on disk.
func Load() (*Config, error) {
	return LoadFS(afero.NewOsFs())
}

// LoadFS reads configuration, resolving secret files through fsys.
func LoadFS(fsys afero.Fs) (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	telegramToken, err := secret(fsys, "TELEGRAM_TOKEN", "TELEGRAM_TOKEN_FILE", "./secrets/telegram_token.txt")
	if err != nil {
		return nil, err
	}
	catalogToken, err := secret(fsys, "CATALOG_TOKEN", "CATALOG_TOKEN_FILE", "./secrets/kinopoisk_token.txt")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		OpsToken:          getEnv("OPS_TOKEN", ""),
		OpsAllowedOrigins: getEnvList("OPS_ALLOWED_ORIGINS"),
		DBPath:            getEnv("DB_PATH", "./data/cinemabot.db"),
		TelegramToken:     telegramToken,
		BotMaxRoutines:    getEnvInt("BOT_MAX_ROUTINES", 50),
		Catalog: CatalogConfig{
			SearchURL:         getEnv("SEARCH_URL", "https://www.google.com/search"),
			Site:              getEnv("SEARCH_SITE", "kinopoisk.ru"),
			APIURL:            getEnv("CATALOG_API_URL", "https://api.kinopoisk.dev/movie"),
			Token:             catalogToken,
			MirrorURLTemplate: getEnv("MIRROR_URL_TEMPLATE", "https://www.kinopoisk.gg/{kind}/{id}/"),
			HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
			RetryAttempts:     getEnvInt("CATALOG_RETRY_ATTEMPTS", 2),
		},
		Log: LogConfig{
			Level:      parseLogLevel(getEnv("LOG_LEVEL", "INFO")),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
// Bot credentials are checked separately by RequireBot.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Catalog.SearchURL == "" {
		return fmt.Errorf("SEARCH_URL cannot be empty")
	}
	if c.Catalog.Site == "" {
		return fmt.Errorf("SEARCH_SITE cannot be empty")
	}
	if c.Catalog.APIURL == "" {
		return fmt.Errorf("CATALOG_API_URL cannot be empty")
	}
	if !strings.Contains(c.Catalog.MirrorURLTemplate, "{id}") {
		return fmt.Errorf("MIRROR_URL_TEMPLATE must contain {id}")
	}
	if c.Catalog.RetryAttempts <= 0 {
		return fmt.Errorf("CATALOG_RETRY_ATTEMPTS must be > 0")
	}
	if c.BotMaxRoutines <= 0 {
		return fmt.Errorf("BOT_MAX_ROUTINES must be > 0")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	return nil
}

// RequireBot checks the secrets needed to run the chat bot.
func (c *Config) RequireBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("telegram token is not configured (TELEGRAM_TOKEN or TELEGRAM_TOKEN_FILE)")
	}
	if c.Catalog.Token == "" {
		return fmt.Errorf("catalog token is not configured (CATALOG_TOKEN or CATALOG_TOKEN_FILE)")
	}
	return nil
}

// OpsAPIEnabled reports whether the guarded ops routes may be served.
// Without OPS_TOKEN the ops server exposes only /health.
func (c *Config) OpsAPIEnabled() bool {
	return c.Port != "" && c.OpsToken != ""
}

// secret returns the value of envKey, or the first line of the file named by
// fileKey (or fallbackPath). A missing default file yields an empty secret;
// a missing explicitly configured file is an error.
func secret(fsys afero.Fs, envKey, fileKey, fallbackPath string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v, nil
	}

	path, explicit := os.LookupEnv(fileKey)
	if !explicit || path == "" {
		path = fallbackPath
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", fileKey, err)
	}

	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
