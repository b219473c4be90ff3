package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv      = "STOREFRONT_APP_ENV"
	EnvPort        = "STOREFRONT_APP_PORT"
	EnvRemoteBase  = "STOREFRONT_REMOTE_BASE_URL"
	EnvRedisURL    = "STOREFRONT_REDIS_URL"
	EnvRealtimeURL = "STOREFRONT_REALTIME_URL"
	EnvAuthSecret  = "STOREFRONT_AUTH_SECRET"
	EnvAuthIssuer  = "STOREFRONT_AUTH_ISSUER"
)

type Config struct {
	App      AppConfig
	Remote   RemoteConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
	Auth     AuthConfig
	Cache    CacheConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteConfig points at the authoritative cart and catalog API.
type RemoteConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_REMOTE_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_REMOTE_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RealtimeConfig configures the persistent event connection.
type RealtimeConfig struct {
	URL           string        `envconfig:"STOREFRONT_REALTIME_URL" required:"true"`
	DialTimeout   time.Duration `envconfig:"STOREFRONT_REALTIME_DIAL_TIMEOUT" default:"10s"`
	WriteTimeout  time.Duration `envconfig:"STOREFRONT_REALTIME_WRITE_TIMEOUT" default:"5s"`
	ProbeInterval time.Duration `envconfig:"STOREFRONT_REALTIME_PROBE_INTERVAL" default:"5s"`
}

type AuthConfig struct {
	Secret string `envconfig:"STOREFRONT_AUTH_SECRET" required:"true"`
	Issuer string `envconfig:"STOREFRONT_AUTH_ISSUER" required:"true"`
}

// CacheConfig controls the embedded notification cache.
type CacheConfig struct {
	Path     string `envconfig:"STOREFRONT_CACHE_PATH" default:"storefront-sync.db"`
	Disabled bool   `envconfig:"STOREFRONT_CACHE_DISABLED" default:"false"`
}
