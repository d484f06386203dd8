package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr    string
	DBPath        string
	LookupBaseURL string
	LookupTimeout time.Duration
	LookupRPS     float64
	AllowedOrigin string
	LogLevel      string
	LogFile       string
}

func Load() *Config {
	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":3000"),
		DBPath:        getEnv("DB_PATH", "/data/pantrysync.db"),
		LookupBaseURL: getEnv("OFF_BASE_URL", "https://world.openfoodfacts.org"),
		LookupTimeout: getDuration("LOOKUP_TIMEOUT", 5*time.Second),
		LookupRPS:     getFloat("LOOKUP_RPS", 10),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if val, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
