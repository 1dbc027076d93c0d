package config

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env  string
	Port int

	// bcrypt cost factor
	SaltRounds      int
	HashConcurrency int

	Store         string
	DBURL         string
	DBMaxConns    int
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTLPEndpoint   string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

func Load() Config {
	if getEnv("APP_ENV", "dev") == "dev" {
		// a missing .env is fine outside of local development
		_ = godotenv.Load()
	}

	return Config{
		Env:             getEnv("APP_ENV", "dev"),
		Port:            getEnvInt("PORT", 8080),
		SaltRounds:      getEnvInt("SALT_ROUNDS", 10),
		HashConcurrency: getEnvInt("HASH_CONCURRENCY", runtime.GOMAXPROCS(0)),
		Store:           strings.ToLower(getEnv("APP_STORE", StorePostgres)),
		DBURL:           buildDBURL(),
		DBMaxConns:      getEnvInt("DB_MAX_CONNS", 5),
		DBAutoMigrate:   getEnvBool("DB_AUTO_MIGRATE", true),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CacheTTL:        time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

func buildDBURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "userhub")
	pass := getEnv("DB_PASSWORD", "userhub")
	name := getEnv("DB_NAME", "userhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout derives a bounded context for a single store call.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(strings.TrimSpace(v))

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an integer, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a boolean, using %t\n", key, v, fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
