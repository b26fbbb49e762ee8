package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/reset-mailer/pkg/messaging/redis"
	"github.com/jwalitptl/reset-mailer/pkg/validator"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" validate:"required"`
	Port         int    `mapstructure:"port" validate:"min=1,max=65535"`
	User         string `mapstructure:"user" validate:"required"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name" validate:"required"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	// Migrate applies the bundled schema migrations at startup.
	Migrate bool `mapstructure:"migrate"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" validate:"required"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type WorkerConfig struct {
	// Channel is the broker channel tasks are published on.
	Channel     string `mapstructure:"channel" validate:"required"`
	Concurrency int    `mapstructure:"concurrency" validate:"min=1"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Settings are the process-wide values the task handlers read. They come
// from the environment only.
type Settings struct {
	EmailFrom string `envconfig:"EMAIL_FROM" default:"Team Plane <team@mailer.plane.so>" validate:"required"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	// TrackerChannel is where captured errors are published. Set it to an
	// empty string to only log them.
	TrackerChannel string `envconfig:"ERROR_TRACKER_CHANNEL" default:"errors"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "plane")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "plane")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.migrate", false)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 1)

	v.SetDefault("worker.channel", "tasks")
	v.SetDefault("worker.concurrency", 8)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// LoadConfig reads config.yml from the given paths (default "." and
// "./config"). A missing file is not an error; defaults and environment
// variables such as DATABASE_HOST or REDIS_URL still apply.
func LoadConfig(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := validator.New().Validate(&s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
