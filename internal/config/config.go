package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	applog "storefront/internal/log"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBDSN    string `mapstructure:"DB_DSN"`
	LogFile  string `mapstructure:"LOG_FILE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	SeedDemo bool   `mapstructure:"SEED_DEMO"`

	AdminEmail    string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string        `mapstructure:"ADMIN_PASSWORD"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`

	LowStockThreshold int    `mapstructure:"LOW_STOCK_THRESHOLD"`
	Timezone          string `mapstructure:"TIMEZONE"`

	// Optional integrations; empty means disabled.
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`
	RedisURL        string `mapstructure:"REDIS_URL"`
}

var keys = []string{
	"PORT", "DB_DSN", "LOG_FILE", "LOG_LEVEL", "SEED_DEMO",
	"ADMIN_EMAIL", "ADMIN_PASSWORD", "TOKEN_TTL",
	"LOW_STOCK_THRESHOLD", "TIMEZONE",
	"KAFKA_BROKERS", "KAFKA_ORDER_TOPIC", "REDIS_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DSN", "storefront.db") // sqlite file in project root
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_DEMO", true)
	v.SetDefault("ADMIN_EMAIL", "admin@ecommerce.com")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_ORDER_TOPIC", "orders.placed")
	v.SetDefault("REDIS_URL", "")
}

// Load reads configuration from the environment and an optional app.env file
// in the working directory. It does not log: the logger is configured from
// the result.
func Load() (Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	// AutomaticEnv alone does not feed Unmarshal for keys without a default.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("read app.env: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	return cfg, nil
}

// Location resolves Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		applog.Logger().Warn().Err(err).Str("timezone", c.Timezone).Msg("[config] unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}

// Brokers splits KafkaBrokers on commas.
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
