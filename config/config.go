package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Store        string // "mongo" or "sqlite"
	MongoURL     string
	MongoDB      string
	SQLitePath   string
	StoreTimeout time.Duration
	ClientOrigin string
	LogLevel     slog.Level

	// Live channel
	PurgeOnDisconnect bool
	SocketRate        float64 // inbound events per second per connection
	SocketBurst       int
	SocketSendBuffer  int
}

// Load reads .env (if present) and the environment. The returned bool
// reports whether a .env file was found.
func Load() (Config, bool, error) {
	foundEnv := godotenv.Load() == nil

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		MongoURL:     getEnv("MONGO_URL", ""),
		MongoDB:      getEnv("MONGO_DB", "chat"),
		SQLitePath:   getEnv("SQLITE_PATH", "data/chat.db"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
	}

	defaultStore := "sqlite"
	if cfg.MongoURL != "" {
		defaultStore = "mongo"
	}
	cfg.Store = strings.ToLower(getEnv("STORE", defaultStore))
	if cfg.Store != "mongo" && cfg.Store != "sqlite" {
		return Config{}, foundEnv, fmt.Errorf("STORE must be mongo or sqlite, got %q", cfg.Store)
	}
	if cfg.Store == "mongo" && cfg.MongoURL == "" {
		return Config{}, foundEnv, fmt.Errorf("MONGO_URL is required when STORE=mongo")
	}

	var err error
	if cfg.StoreTimeout, err = getEnvAsDuration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, foundEnv, err
	}
	if err = cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "INFO"))); err != nil {
		return Config{}, foundEnv, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.PurgeOnDisconnect, err = getEnvAsBool("PRESENCE_PURGE_ON_DISCONNECT", true); err != nil {
		return Config{}, foundEnv, err
	}
	if cfg.SocketRate, err = getEnvAsFloat("SOCKET_RATE", 20); err != nil {
		return Config{}, foundEnv, err
	}
	if cfg.SocketBurst, err = getEnvAsInt("SOCKET_BURST", 40); err != nil {
		return Config{}, foundEnv, err
	}
	if cfg.SocketSendBuffer, err = getEnvAsInt("SOCKET_SEND_BUFFER", 256); err != nil {
		return Config{}, foundEnv, err
	}

	return cfg, foundEnv, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, valueStr)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", key, valueStr)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, valueStr)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, valueStr)
	}
	return value, nil
}
