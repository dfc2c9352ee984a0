package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	applog "storefront/internal/log"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.DBDSN != "storefront.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 168*time.Hour || cfg.LowStockThreshold != 10 {
		t.Fatalf("unexpected auth/analytics defaults: %+v", cfg)
	}
	if len(cfg.Brokers()) != 0 {
		t.Fatalf("kafka should be disabled by default: %v", cfg.Brokers())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("SEED_DEMO", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TIMEZONE", "Not/AZone")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9090" || cfg.TokenTTL != 30*time.Minute || cfg.SeedDemo {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if b := cfg.Brokers(); len(b) != 2 || b[1] != "k2:9092" {
		t.Fatalf("brokers: %v", b)
	}
	var buf bytes.Buffer
	applog.Setup(&buf, "info")
	if cfg.Location() != time.UTC {
		t.Fatal("unknown timezone should fall back to UTC")
	}
	if !strings.Contains(buf.String(), "unknown timezone") {
		t.Fatalf("fallback warning should reach the configured log writer, got %q", buf.String())
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("TOKEN_TTL", "a week or so")
	if _, err := Load(); err == nil {
		t.Fatal("want error for unparsable TOKEN_TTL")
	}
}
