package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLocalAuthority is the authority of the on-device media provider.
const DefaultLocalAuthority = "com.android.providers.media.photopicker"

const (
	defaultQueryLimit     = 100
	defaultMaxQueryLimit  = 1000
	defaultSyncQueueSize  = 64
	defaultNumSyncWorkers = 1
)

type Config struct {
	// database path
	DatabasePath string

	// provider authorities; an empty CloudAuthority leaves the stored setting alone
	LocalAuthority string
	CloudAuthority string

	// query paging
	DefaultQueryLimit int
	MaxQueryLimit     int

	// worker settings
	SyncQueueSize  int
	NumSyncWorkers int

	// display name of the favorites album
	FavoritesDisplayName string

	LogLevel string

	// http server
	Port           string
	AllowedOrigins []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		logrus.WithError(err).Warnf("config: invalid %s '%s', using default %d", envVar, valStr, defaultVal)
		return defaultVal
	}
	return val
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "picker.db")
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for database '%s': %w", dbPath, err)
	}

	local := strings.TrimSpace(getEnvOrDefault("LOCAL_AUTHORITY", DefaultLocalAuthority))
	cloud := strings.TrimSpace(os.Getenv("CLOUD_AUTHORITY"))
	if cloud != "" && cloud == local {
		return Config{}, fmt.Errorf("CLOUD_AUTHORITY must differ from LOCAL_AUTHORITY (%s)", local)
	}

	defaultLimit := getEnvIntOrDefault("DEFAULT_QUERY_LIMIT", defaultQueryLimit)
	maxLimit := getEnvIntOrDefault("MAX_QUERY_LIMIT", defaultMaxQueryLimit)
	if defaultLimit > maxLimit {
		logrus.Warnf("config: DEFAULT_QUERY_LIMIT %d exceeds MAX_QUERY_LIMIT %d, clamping", defaultLimit, maxLimit)
		defaultLimit = maxLimit
	}

	cfg := Config{
		DatabasePath:         absDBPath,
		LocalAuthority:       local,
		CloudAuthority:       cloud,
		DefaultQueryLimit:    defaultLimit,
		MaxQueryLimit:        maxLimit,
		SyncQueueSize:        getEnvIntOrDefault("SYNC_QUEUE_SIZE", defaultSyncQueueSize),
		NumSyncWorkers:       getEnvIntOrDefault("NUM_SYNC_WORKERS", defaultNumSyncWorkers),
		FavoritesDisplayName: getEnvOrDefault("FAVORITES_DISPLAY_NAME", "Favorites"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		Port:                 getEnvOrDefault("PORT", "8080"),
		AllowedOrigins:       splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	return cfg, nil
}
