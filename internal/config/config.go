// Package config loads application settings from defaults, an optional YAML
// file and YATUBE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	ConfigPathEnvVar = "CONFIG_PATH"
	EnvPrefix        = "YATUBE_"
)

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/yatube/config.yaml",
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Auth     AuthConfig     `koanf:"auth"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Feed     FeedConfig     `koanf:"feed"`
	Media    MediaConfig    `koanf:"media"`
	Outbox   OutboxConfig   `koanf:"outbox"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
	// Mode is the gin mode: debug, release or test.
	Mode string `koanf:"mode" validate:"oneof=debug release test"`
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver" validate:"oneof=mysql postgres sqlite"`
	DSN          string `koanf:"dsn" validate:"required"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"min=0"`
}

type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr" validate:"required_if=Enabled true"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

type KafkaConfig struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers" validate:"required_if=Enabled true"`
	Topic   string   `koanf:"topic" validate:"required_if=Enabled true"`
}

type AuthConfig struct {
	AccessSecret string        `koanf:"access_secret" validate:"required,min=8"`
	AccessTTL    time.Duration `koanf:"access_ttl" validate:"gt=0"`
	CookieName   string        `koanf:"cookie_name" validate:"required"`
	// SingleSession stores the issued token in redis and rejects any other.
	SingleSession bool `koanf:"single_session"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"min=0,max=65535"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type FeedConfig struct {
	PageSize      int           `koanf:"page_size" validate:"min=1,max=100"`
	IndexCacheTTL time.Duration `koanf:"index_cache_ttl" validate:"min=0"`
	CacheBackend  string        `koanf:"cache_backend" validate:"oneof=memory redis"`
}

type MediaConfig struct {
	Dir       string `koanf:"dir" validate:"required"`
	URLPrefix string `koanf:"url_prefix" validate:"required,startswith=/"`
	MaxBytes  int64  `koanf:"max_bytes" validate:"gt=0"`
}

type OutboxConfig struct {
	BatchSize int           `koanf:"batch_size" validate:"min=1"`
	Interval  time.Duration `koanf:"interval" validate:"gt=0"`
	MaxRetry  int           `koanf:"max_retry" validate:"min=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// DefaultAccessSecret is the placeholder JWT secret. Release mode refuses to
// start with it.
const DefaultAccessSecret = "change-me-please"

var ErrDefaultSecret = errors.New("auth.access_secret must be changed in release mode")

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", Mode: "release"},
		Database: DatabaseConfig{
			Driver:       "mysql",
			DSN:          "user:password@tcp(127.0.0.1:3306)/yatube?charset=utf8mb4&parseTime=True&loc=Local",
			AutoMigrate:  true,
			MaxOpenConns: 20,
		},
		Redis: RedisConfig{Enabled: false, Addr: "127.0.0.1:6379"},
		Kafka: KafkaConfig{Enabled: false, Brokers: []string{"127.0.0.1:9092"}, Topic: "social.follow"},
		Auth: AuthConfig{
			AccessSecret: DefaultAccessSecret,
			AccessTTL:    24 * time.Hour,
			CookieName:   "yatube_token",
		},
		SMTP: SMTPConfig{Host: "localhost", Port: 587, From: "Yatube <no-reply@yatube.local>"},
		Feed: FeedConfig{PageSize: 10, IndexCacheTTL: 20 * time.Second, CacheBackend: "memory"},
		Media: MediaConfig{
			Dir:       "./media",
			URLPrefix: "/media",
			MaxBytes:  5 << 20,
		},
		Outbox:  OutboxConfig{BatchSize: 200, Interval: time.Second, MaxRetry: 5},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration: defaults, then the config file (if any), then env.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitList(k, "kafka.brokers"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return err
	}
	if c.Server.Mode == "release" && c.Auth.AccessSecret == DefaultAccessSecret {
		return ErrDefaultSecret
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps YATUBE_FEED_PAGE_SIZE to feed.page_size: the first
// underscore separates the section, the rest stay part of the key.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return section
	}
	return section + "." + rest
}

// splitList turns a comma separated env value into a slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}
