package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/currency"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	ServerPort      string
	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	JWTSecret       string
	SessionTTL      time.Duration
	CookieSecure    bool
	LogLevel        string
	LogFormat       string
	Currency        currency.Unit
	SwaggerHost     string
	CORSAllowOrigin []string
	ResetDB         bool
}

// Load builds Config from the environment (and an optional .env / config.env file).
// DATABASE_URL and JWT_SECRET have no defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	unit, err := currency.ParseISO(v.GetString("CURRENCY"))
	if err != nil {
		return nil, fmt.Errorf("parse CURRENCY: %w", err)
	}

	cfg := &Config{
		AppEnv:          v.GetString("APP_ENV"),
		ServerPort:      v.GetString("SERVER_PORT"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		DBMaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisDB:         v.GetInt("REDIS_DB"),
		RedisPass:       v.GetString("REDIS_PASSWORD"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		SessionTTL:      time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
		CookieSecure:    v.GetBool("COOKIE_SECURE"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		Currency:        unit,
		SwaggerHost:     v.GetString("SWAGGER_HOST"),
		CORSAllowOrigin: splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		ResetDB:         v.GetBool("RESET_DB"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL_HOURS", 168)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("CURRENCY", "INR")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("RESET_DB", false)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
