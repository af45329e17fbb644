package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret    []byte
	JWTAlgorithm string

	AccessTokenTTL   time.Duration
	ExtendedTokenTTL time.Duration
	RefreshTokenTTL  time.Duration
	StoreTimeout     time.Duration

	KafkaBrokers []string

	LogLevel     string
	CookieSecure bool
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "monolog-auth"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		JWTAlgorithm: EnvDefault("JWT_ALGORITHM", "HS256"),

		AccessTokenTTL:   time.Duration(EnvIntDefault("ACCESS_TOKEN_TTL_MIN", 30)) * time.Minute,
		ExtendedTokenTTL: time.Duration(EnvIntDefault("EXTENDED_TOKEN_TTL_H", 168)) * time.Hour,
		RefreshTokenTTL:  time.Duration(EnvIntDefault("REFRESH_TOKEN_TTL_H", 168)) * time.Hour,
		StoreTimeout:     time.Duration(EnvIntDefault("STORE_TIMEOUT_MS", 3000)) * time.Millisecond,

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		LogLevel:     EnvDefault("LOG_LEVEL", "info"),
		CookieSecure: EnvBoolDefault("COOKIE_SECURE", false),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
