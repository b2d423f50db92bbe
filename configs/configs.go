// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SearchKeyEnvVar is the variable under which the restricted Meilisearch key
// is persisted. SaveSearchKey rewrites exactly this line of the env file.
const SearchKeyEnvVar = "MEILISEARCH_SEARCH_KEY"

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// Mongo contains connection settings for the primary document store.
	Mongo MongoConfig

	// Meilisearch contains connection and credential settings for the
	// search engine.
	Meilisearch MeilisearchConfig

	// Sync contains settings for the store-to-search-engine sync pipeline.
	Sync SyncConfig

	// ServerPort is the port the HTTP API listens on.
	ServerPort string

	// EnvFile is the path of the env file keys are persisted to.
	EnvFile string
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	// URI is the MongoDB connection string (e.g. "mongodb://localhost:27017").
	URI string

	// Database is the database name. It is a fixed configuration value and
	// is never derived from the URI; a hostname fragment is not a database.
	Database string

	// ConnectTimeoutSeconds bounds a single connection attempt.
	ConnectTimeoutSeconds int
}

// MeilisearchConfig holds Meilisearch connection settings and the two
// credential scopes.
type MeilisearchConfig struct {
	// Host is the Meilisearch base URL (e.g. "http://localhost:7700").
	Host string

	// MasterKey is the administrative key. It must never be handed to a
	// caller outside the key manager / sync boundary.
	MasterKey string

	// SearchKey is the restricted key used for all read paths. May be empty
	// on first start; the key manager creates and persists one.
	SearchKey string

	// KeyDescription is the label the restricted key is registered under.
	// Lookup by this label is what makes key creation idempotent.
	KeyDescription string

	// RequestTimeoutSeconds bounds a single request to the engine.
	RequestTimeoutSeconds int
}

// SyncConfig holds settings for batch upserts into the search engine.
type SyncConfig struct {
	// UpsertsPerSecond paces batch writes against the search engine.
	UpsertsPerSecond float64
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		Mongo: MongoConfig{
			URI:                   getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:              getEnv("MONGODB_DB_NAME", "whalewatch"),
			ConnectTimeoutSeconds: getEnvInt("MONGODB_CONNECT_TIMEOUT_SECONDS", 5),
		},
		Meilisearch: MeilisearchConfig{
			Host:                  getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
			MasterKey:             getEnv("MEILISEARCH_MASTER_KEY", ""),
			SearchKey:             getEnv(SearchKeyEnvVar, ""),
			KeyDescription:        getEnv("MEILISEARCH_KEY_DESCRIPTION", "searchsync search-only key"),
			RequestTimeoutSeconds: getEnvInt("MEILISEARCH_TIMEOUT_SECONDS", 5),
		},
		Sync: SyncConfig{
			UpsertsPerSecond: getEnvFloat("SYNC_UPSERTS_PER_SECOND", 4),
		},
		ServerPort: getEnv("SERVER_PORT", "8080"),
		EnvFile:    getEnv("ENV_FILE", ".env"),
	}
}

// SaveSearchKey persists the restricted search key into the env file so
// future process starts reuse it. The MEILISEARCH_SEARCH_KEY line is
// rewritten in place, or appended if absent; other lines are untouched.
func SaveSearchKey(path, key string) error {
	line := fmt.Sprintf("%s=%s", SearchKeyEnvVar, key)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read env file %s: %w", path, err)
		}
		return os.WriteFile(path, []byte(line+"\n"), 0o600)
	}

	lines := strings.Split(string(data), "\n")
	replaced := false
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), SearchKeyEnvVar+"=") {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines[len(lines)-1] = line
			lines = append(lines, "")
		} else {
			lines = append(lines, line, "")
		}
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600)
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
