package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "GRPC_PORT", "STORE_DRIVER", "LOCK_DRIVER", "LOCK_TTL", "KAFKA_BROKERS", "TRACING_ENABLED", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "TRACING_SAMPLE_RATIO"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.HTTPPort != "8082" || cfg.GRPCPort != "9092" {
		t.Errorf("unexpected ports: %s %s", cfg.HTTPPort, cfg.GRPCPort)
	}
	if cfg.StoreDriver != StoreDriverPostgres || cfg.LockDriver != LockDriverLocal {
		t.Errorf("unexpected drivers: %s %s", cfg.StoreDriver, cfg.LockDriver)
	}
	if cfg.LockTTL != 10*time.Second || cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("unexpected ttls: %v %v", cfg.LockTTL, cfg.IdempotencyTTL)
	}
	if cfg.Kafka.Enabled() {
		t.Error("expected kafka to be disabled without brokers")
	}
	if !cfg.TracingEnabled {
		t.Error("expected tracing to be enabled by default")
	}
	if cfg.SampleRatio != 1 {
		t.Errorf("expected full sampling, got %v", cfg.SampleRatio)
	}
	if cfg.RateLimit.Requests != 120 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("unexpected rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("LOCK_DRIVER", "redis")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("TRACING_ENABLED", "false")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	t.Setenv("TRACING_SAMPLE_RATIO", "0.25")

	cfg := Load()

	if cfg.StoreDriver != StoreDriverMongo || cfg.LockDriver != LockDriverRedis {
		t.Errorf("unexpected drivers: %s %s", cfg.StoreDriver, cfg.LockDriver)
	}
	if cfg.LockTTL != 3*time.Second {
		t.Errorf("expected 3s lock ttl, got %v", cfg.LockTTL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("expected fallback request timeout, got %v", cfg.RequestTimeout)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.TracingEnabled {
		t.Error("expected tracing to be disabled")
	}
	if cfg.IsDevelopment() {
		t.Error("expected production environment")
	}
	if cfg.SampleRatio != 0.25 {
		t.Errorf("expected 0.25 sample ratio, got %v", cfg.SampleRatio)
	}
	if cfg.RateLimit.Requests != 0 {
		t.Errorf("expected rate limiting to be disabled, got %d", cfg.RateLimit.Requests)
	}
}
