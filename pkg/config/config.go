package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// Lock drivers
const (
	LockDriverLocal = "local"
	LockDriverRedis = "redis"
)

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MongoConfig holds MongoDB settings
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	Addr     string
	Password string
}

// KafkaConfig holds broker settings. No brokers disables events.
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// Enabled reports whether brokers are configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// RateLimitConfig bounds ledger writes per tenant. Zero requests disables it.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Config holds the inventory service configuration
type Config struct {
	ServiceName    string
	Environment    string
	LogLevel       string
	HTTPPort       string
	GRPCPort       string
	StoreDriver    string
	LockDriver     string
	LockTTL        time.Duration
	IdempotencyTTL time.Duration
	RequestTimeout time.Duration
	JWTSecret      string
	TracingEnabled bool
	JaegerEndpoint string
	SampleRatio    float64

	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "inventory-service"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPPort:       getEnv("HTTP_PORT", "8082"),
		GRPCPort:       getEnv("GRPC_PORT", "9092"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		LockDriver:     strings.ToLower(getEnv("LOCK_DRIVER", LockDriverLocal)),
		LockTTL:        getDuration("LOCK_TTL", 10*time.Second),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		TracingEnabled: getBool("TRACING_ENABLED", true),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		SampleRatio:    getFloat("TRACING_SAMPLE_RATIO", 1),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "inventorydb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database: getEnv("MONGO_DATABASE", "inventory"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			GroupID: getEnv("KAFKA_GROUP_ID", "inventory-service"),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("RATE_LIMIT_REQUESTS", 120),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n >= 0 {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
