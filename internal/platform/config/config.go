package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers understood by cmd/server.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Store           StoreConfig
	Mongo           MongoConfig
	Postgres        PostgresConfig
	Redis           RedisConfig
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string
}

// MongoConfig configures the document store backend.
// Transactions require a replica set; without them link maintenance falls back
// to independent writes.
type MongoConfig struct {
	URI          string
	Database     string
	Transactions bool
	Timeout      time.Duration
}

// PostgresConfig configures the relational backend.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	AutoMigrate  bool
}

// RedisConfig configures the optional read-through cache.
// An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            getenv("CASEFILE_ADDR", ":8080"),
		LogLevel:        getenv("CASEFILE_LOG_LEVEL", "info"),
		RequestTimeout:  getDuration("CASEFILE_REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("CASEFILE_SHUTDOWN_TIMEOUT", 10*time.Second),
		Store: StoreConfig{
			Driver: strings.ToLower(getenv("CASEFILE_STORE", DriverMemory)),
		},
		Mongo: MongoConfig{
			URI:          getenv("CASEFILE_MONGO_URI", "mongodb://localhost:27017"),
			Database:     getenv("CASEFILE_MONGO_DATABASE", "casefile"),
			Transactions: getBool("CASEFILE_MONGO_TRANSACTIONS", false),
			Timeout:      getDuration("CASEFILE_MONGO_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          getenv("CASEFILE_POSTGRES_DSN", ""),
			MaxOpenConns: getInt("CASEFILE_POSTGRES_MAX_OPEN_CONNS", 10),
			AutoMigrate:  getBool("CASEFILE_POSTGRES_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          getenv("CASEFILE_REDIS_URL", ""),
			PoolSize:     getInt("CASEFILE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("CASEFILE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("CASEFILE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("CASEFILE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("CASEFILE_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getDuration("CASEFILE_REDIS_CACHE_TTL", 5*time.Minute),
		},
	}
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return fallback
}
