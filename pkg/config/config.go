package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	JWTSecret           string
	JWTIssuer           string
	AccessTTLMinutes    int
	RefreshTTLHours     int
	RotateRefreshTokens bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	FrontendURL        string

	ValidateEmailDomain bool
	DisposableDomains   []string
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change"),
		JWTIssuer:           getEnv("JWT_ISSUER", "orienta-backend"),
		AccessTTLMinutes:    getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 60),
		RefreshTTLHours:     getEnvInt("REFRESH_TOKEN_TTL_HOURS", 24),
		RotateRefreshTokens: getEnvBool("ROTATE_REFRESH_TOKENS", false),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),

		ValidateEmailDomain: getEnvBool("VALIDAR_DOMINIO_EMAIL", false),
		DisposableDomains:   getEnvCSV("DISPOSABLE_DOMAINS"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	}
	return def
}

func getEnvCSV(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
