package util

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server config
	BaseURL string
	Port    string

	// Database config
	DBConn string

	// Redis config (background task queue)
	RedisAddr string

	// Email config
	SMTPHost    string
	SMTPPort    string
	Email       string
	AppPassword string

	// Security config
	SecretKey              []byte
	TokenExpiration        time.Duration
	RefreshTokenExpiration time.Duration

	// OAuth2 config
	GoogleClientID     string
	GoogleClientSecret string

	// Users allowed to manage the avatar catalog
	AdminIDs []string
}

func LoadConfig(path string) *Config {
	// A missing .env is not fatal, the variables may come from the environment
	_ = godotenv.Load(path)

	config := &Config{
		BaseURL:            envOr("BASE_URL", "localhost:8080"),
		Port:               envOr("PORT", "8080"),
		DBConn:             os.Getenv("DB_CONN"),
		RedisAddr:          envOr("REDIS_ADDRESS", "localhost:6379"),
		SMTPHost:           envOr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           envOr("SMTP_PORT", "587"),
		Email:              os.Getenv("EMAIL"),
		AppPassword:        os.Getenv("APP_PASSWORD"),
		SecretKey:          []byte(os.Getenv("SECRET_KEY")),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
	}

	// Token lifetimes are configured in minutes
	config.TokenExpiration = time.Minute * time.Duration(envIntOr("TOKEN_EXPIRATION", 60))
	config.RefreshTokenExpiration = time.Minute * time.Duration(envIntOr("REFRESH_TOKEN_EXPIRATION", 1440))

	if admins := os.Getenv("ADMIN_IDS"); admins != "" {
		for _, id := range strings.Split(admins, ",") {
			if id = strings.TrimSpace(id); id != "" {
				config.AdminIDs = append(config.AdminIDs, id)
			}
		}
	}

	return config
}

// Method to check if a user ID belongs to an avatar catalog admin
func (config *Config) IsAdmin(userID string) bool {
	for _, id := range config.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
