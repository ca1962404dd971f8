package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Env        string
	LogLevel   string
	Port       string
	CORSOrigin string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// JWT
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Uploads
	UploadDir      string
	UploadMaxBytes int64

	// Currency code used in human-readable balance messages
	Currency string
}

var appConfig *Config

var defaults = map[string]interface{}{
	"ENV":              "development",
	"LOG_LEVEL":        "",
	"PORT":             "8080",
	"CORS_ORIGIN":      "*",
	"DB_DRIVER":        "postgres",
	"DB_HOST":          "localhost",
	"DB_PORT":          "5432",
	"DB_USER":          "fundledger",
	"DB_PASSWORD":      "fundledger",
	"DB_NAME":          "fundledger",
	"DB_SSLMODE":       "disable",
	"DB_PATH":          "fundledger.db",
	"JWT_SECRET":       "fallback-secret-key-for-dev-only",
	"JWT_ACCESS_TTL":   "15m",
	"JWT_REFRESH_TTL":  "168h",
	"UPLOAD_DIR":       "uploads",
	"UPLOAD_MAX_BYTES": 5 << 20,
	"CURRENCY":         "UGX",
}

// Load reads configuration from the environment. A .env file is loaded first
// if present, and CONFIG_FILE may point at a yaml/json/toml file whose keys
// use the same names as the environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	config := &Config{
		Env:        v.GetString("ENV"),
		LogLevel:   v.GetString("LOG_LEVEL"),
		Port:       v.GetString("PORT"),
		CORSOrigin: v.GetString("CORS_ORIGIN"),

		DBDriver:   v.GetString("DB_DRIVER"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		DBPath:     v.GetString("DB_PATH"),

		JWTSecret: v.GetString("JWT_SECRET"),

		UploadDir:      v.GetString("UPLOAD_DIR"),
		UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),

		Currency: v.GetString("CURRENCY"),
	}

	config.AccessTokenTTL = parseDuration(v.GetString("JWT_ACCESS_TTL"), 15*time.Minute, "JWT_ACCESS_TTL")
	config.RefreshTokenTTL = parseDuration(v.GetString("JWT_REFRESH_TTL"), 7*24*time.Hour, "JWT_REFRESH_TTL")

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process configuration. Intended for tests.
func Set(c *Config) {
	appConfig = c
}

func parseDuration(value string, fallback time.Duration, key string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, value, fallback)
		return fallback
	}
	return d
}
