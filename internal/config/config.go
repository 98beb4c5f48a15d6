package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends soportados para el caché de detalles.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Políticas para pedidos cuyo detalle no se pudo obtener.
const (
	PolicyDrop  = "drop"
	PolicyFlag  = "flag"
	PolicyRetry = "retry"
)

type Config struct {
	Server   ServerConfig
	Magazord MagazordConfig
	Cache    CacheConfig
	Fetch    FetchConfig
	Repair   RepairConfig
	Auth     AuthConfig
	Status   StatusConfig
	LogLevel string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MagazordConfig struct {
	BaseURL        string
	User           string
	Password       string
	PageSize       int
	MaxPages       int
	RequestTimeout time.Duration
	RateLimit      float64 // requests por segundo
	RateBurst      int
	Timezone       string
}

type CacheConfig struct {
	Backend       string
	File          string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

type FetchConfig struct {
	Concurrency    int
	FailurePolicy  string
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

type RepairConfig struct {
	BatchSize int
}

type AuthConfig struct {
	UsersFile       string
	DefaultUser     string
	DefaultPassword string
	SessionTTL      time.Duration
}

type StatusConfig struct {
	CancelledMarker string
	AwaitingMarker  string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("server_read_timeout", 10*time.Second)
	v.SetDefault("server_write_timeout", 120*time.Second)
	v.SetDefault("server_idle_timeout", 120*time.Second)

	v.SetDefault("magazord_page_size", 100)
	v.SetDefault("magazord_max_pages", 100)
	v.SetDefault("magazord_request_timeout", 15*time.Second)
	v.SetDefault("magazord_rate_limit", 5.0)
	v.SetDefault("magazord_rate_burst", 10)
	v.SetDefault("magazord_timezone", "America/Sao_Paulo")

	v.SetDefault("cache_backend", BackendFile)
	v.SetDefault("cache_file", "cache_pedidos.json")
	v.SetDefault("cache_dsn", "cache_pedidos.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "pedido:")

	v.SetDefault("fetch_concurrency", 10)
	v.SetDefault("detail_failure_policy", PolicyFlag)
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("retry_base_delay", 500*time.Millisecond)

	v.SetDefault("repair_batch_size", 20)

	v.SetDefault("users_file", "users.json")
	v.SetDefault("auth_default_user", "admin")
	v.SetDefault("session_ttl", 24*time.Hour)

	v.SetDefault("status_cancelled_marker", "cancelado")
	v.SetDefault("status_awaiting_marker", "aguardando")

	v.SetDefault("log_level", "info")
}

// Load lee la configuración desde variables de entorno (PORT, MAGAZORD_URL, ...).
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("port"),
			ReadTimeout:  v.GetDuration("server_read_timeout"),
			WriteTimeout: v.GetDuration("server_write_timeout"),
			IdleTimeout:  v.GetDuration("server_idle_timeout"),
		},
		Magazord: MagazordConfig{
			BaseURL:        strings.TrimRight(v.GetString("magazord_url"), "/"),
			User:           v.GetString("magazord_user"),
			Password:       v.GetString("magazord_pass"),
			PageSize:       v.GetInt("magazord_page_size"),
			MaxPages:       v.GetInt("magazord_max_pages"),
			RequestTimeout: v.GetDuration("magazord_request_timeout"),
			RateLimit:      v.GetFloat64("magazord_rate_limit"),
			RateBurst:      v.GetInt("magazord_rate_burst"),
			Timezone:       v.GetString("magazord_timezone"),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(v.GetString("cache_backend")),
			File:          v.GetString("cache_file"),
			DSN:           v.GetString("cache_dsn"),
			RedisAddr:     v.GetString("redis_addr"),
			RedisPassword: v.GetString("redis_password"),
			RedisDB:       v.GetInt("redis_db"),
			RedisPrefix:   v.GetString("redis_prefix"),
		},
		Fetch: FetchConfig{
			Concurrency:    v.GetInt("fetch_concurrency"),
			FailurePolicy:  strings.ToLower(v.GetString("detail_failure_policy")),
			RetryAttempts:  v.GetInt("retry_attempts"),
			RetryBaseDelay: v.GetDuration("retry_base_delay"),
		},
		Repair: RepairConfig{
			BatchSize: v.GetInt("repair_batch_size"),
		},
		Auth: AuthConfig{
			UsersFile:       v.GetString("users_file"),
			DefaultUser:     v.GetString("auth_default_user"),
			DefaultPassword: v.GetString("auth_default_password"),
			SessionTTL:      v.GetDuration("session_ttl"),
		},
		Status: StatusConfig{
			CancelledMarker: v.GetString("status_cancelled_marker"),
			AwaitingMarker:  v.GetString("status_awaiting_marker"),
		},
		LogLevel: v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Magazord.BaseURL == "" {
		return errors.New("MAGAZORD_URL is required")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendSQLite, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.Cache.Backend)
	}
	switch c.Fetch.FailurePolicy {
	case PolicyDrop, PolicyFlag, PolicyRetry:
	default:
		return fmt.Errorf("unsupported DETAIL_FAILURE_POLICY %q", c.Fetch.FailurePolicy)
	}
	if c.Magazord.PageSize <= 0 || c.Magazord.MaxPages <= 0 {
		return errors.New("MAGAZORD_PAGE_SIZE and MAGAZORD_MAX_PAGES must be positive")
	}
	if c.Fetch.Concurrency <= 0 {
		return errors.New("FETCH_CONCURRENCY must be positive")
	}
	if c.Repair.BatchSize <= 0 {
		return errors.New("REPAIR_BATCH_SIZE must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location es la zona horaria de la tienda, usada para interpretar dataHora
// y para definir "hoy" en los reportes.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Magazord.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid MAGAZORD_TIMEZONE %q: %w", c.Magazord.Timezone, err)
	}
	return loc, nil
}
