// Package config loads service settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

// EnvPrefix namespaces environment overrides: MAINT_ENGINE__STORE_TIMEOUT
// maps to engine.store_timeout.
const EnvPrefix = "MAINT_"

type MongoConfig struct {
	URI             string `koanf:"uri"`
	Database        string `koanf:"database"`
	UseTransactions bool   `koanf:"use_transactions"`
}

type RedisConfig struct {
	// Addr enables the shared Redis lock; empty keeps the in-process lock.
	Addr     string        `koanf:"addr"`
	LockTTL  time.Duration `koanf:"lock_ttl"`
	LockPoll time.Duration `koanf:"lock_poll"`
}

type TelegramConfig struct {
	BotToken string        `koanf:"bot_token"`
	Timeout  time.Duration `koanf:"timeout"`
}

type MQTTConfig struct {
	Broker      string `koanf:"broker"`
	ClientID    string `koanf:"client_id"`
	TopicPrefix string `koanf:"topic_prefix"`
	QoS         int    `koanf:"qos"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type EngineConfig struct {
	StoreTimeout    time.Duration `koanf:"store_timeout"`
	TypeConcurrency int           `koanf:"type_concurrency"`
	DueWithinDays   float64       `koanf:"due_within_days"`
	DueWithinKm     int           `koanf:"due_within_km"`
	RearmAfter      time.Duration `koanf:"rearm_after"`
	RearmDistance   int           `koanf:"rearm_distance"`
}

type SweepConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Interval    time.Duration `koanf:"interval"`
	Concurrency int           `koanf:"concurrency"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SimulatorConfig struct {
	MinDailyKm int           `koanf:"min_daily_km"`
	MaxDailyKm int           `koanf:"max_daily_km"`
	Tick       time.Duration `koanf:"tick"`
}

// Config is the full service configuration.
type Config struct {
	Mongo     MongoConfig     `koanf:"mongo"`
	Redis     RedisConfig     `koanf:"redis"`
	Telegram  TelegramConfig  `koanf:"telegram"`
	MQTT      MQTTConfig      `koanf:"mqtt"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Engine    EngineConfig    `koanf:"engine"`
	Intervals map[string]int  `koanf:"intervals"`
	Sweep     SweepConfig     `koanf:"sweep"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Log       LogConfig       `koanf:"log"`
	Simulator SimulatorConfig `koanf:"simulator"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "motarilog",
		},
		Redis: RedisConfig{
			LockTTL:  30 * time.Second,
			LockPoll: 50 * time.Millisecond,
		},
		Telegram: TelegramConfig{Timeout: 5 * time.Second},
		MQTT: MQTTConfig{
			ClientID:    "maintenance-predictor",
			TopicPrefix: "fleet/maintenance",
			QoS:         1,
		},
		Kafka: KafkaConfig{Topic: "maintenance.predictions"},
		Engine: EngineConfig{
			StoreTimeout:    5 * time.Second,
			TypeConcurrency: 1,
			DueWithinDays:   7,
			DueWithinKm:     500,
			RearmAfter:      7 * 24 * time.Hour,
			RearmDistance:   1000,
		},
		Sweep: SweepConfig{
			Interval:    24 * time.Hour,
			Concurrency: 4,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Simulator: SimulatorConfig{
			MinDailyKm: 10,
			MaxDailyKm: 120,
			Tick:       2 * time.Second,
		},
	}
}

// Load reads an optional .env file, then layers path (if not empty) and
// MAINT_ environment variables over the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyLegacyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyLegacyEnv honours the unprefixed variable names of older deployments when
// the namespaced ones are not set.
func applyLegacyEnv(cfg *Config) {
	legacy := []struct {
		name      string
		namespace string
		dst       *string
	}{
		{"MONGO_URI", EnvPrefix + "MONGO__URI", &cfg.Mongo.URI},
		{"TELEGRAM_BOT_TOKEN", EnvPrefix + "TELEGRAM__BOT_TOKEN", &cfg.Telegram.BotToken},
		{"REDIS_ADDR", EnvPrefix + "REDIS__ADDR", &cfg.Redis.Addr},
	}
	for _, l := range legacy {
		if _, ok := os.LookupEnv(l.namespace); ok {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(l.name)); v != "" {
			*l.dst = v
		}
	}
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required")
	}
	if c.Engine.StoreTimeout <= 0 {
		return fmt.Errorf("engine.store_timeout must be positive")
	}
	if c.Engine.TypeConcurrency < 1 {
		return fmt.Errorf("engine.type_concurrency must be at least 1")
	}
	if c.Engine.DueWithinDays < 0 || c.Engine.DueWithinKm < 0 {
		return fmt.Errorf("engine alert window must not be negative")
	}
	if c.Engine.RearmAfter < 0 || c.Engine.RearmDistance < 0 {
		return fmt.Errorf("engine re-arm settings must not be negative")
	}
	for t, km := range c.Intervals {
		if km <= 0 {
			return fmt.Errorf("intervals.%s must be positive", t)
		}
	}
	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive when the sweep is enabled")
	}
	if c.Sweep.Concurrency < 1 {
		return fmt.Errorf("sweep.concurrency must be at least 1")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	if c.Simulator.MinDailyKm < 0 || c.Simulator.MaxDailyKm < c.Simulator.MinDailyKm {
		return fmt.Errorf("simulator daily range is invalid")
	}
	if c.Simulator.Tick <= 0 {
		return fmt.Errorf("simulator.tick must be positive")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// ConfigureLogger applies the log section to l.
func (c *Config) ConfigureLogger(l *logrus.Logger) {
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
