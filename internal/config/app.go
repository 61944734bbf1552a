package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LIFEDASH_"

// AppConfig is the runtime configuration of the CLI and the HTTP server.
type AppConfig struct {
	Environment string `yaml:"environment" validate:"oneof=development production"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	// Timezone decides calendar days for history snapshots.
	Timezone string `yaml:"timezone"`

	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
	// SessionTTL is how long an idle user's workspace stays in memory.
	SessionTTL  time.Duration `yaml:"session_ttl" validate:"gt=0"`
	CORSOrigins []string      `yaml:"cors_origins"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" validate:"required,min=16"`
	Issuer    string        `yaml:"issuer" validate:"required"`
	TokenTTL  time.Duration `yaml:"token_ttl" validate:"gt=0"`
}

// StoreConfig selects the remote and local store adapters.
type StoreConfig struct {
	Remote         string        `yaml:"remote" validate:"oneof=memory dynamo"`
	Local          string        `yaml:"local" validate:"oneof=memory sqlite"`
	SQLitePath     string        `yaml:"sqlite_path" validate:"required_if=Local sqlite"`
	DynamoTable    string        `yaml:"dynamo_table" validate:"required_if=Remote dynamo"`
	DynamoRegion   string        `yaml:"dynamo_region"`
	DynamoEndpoint string        `yaml:"dynamo_endpoint"`
	RemoteTimeout  time.Duration `yaml:"remote_timeout" validate:"gt=0"`
	// BreakerFailures consecutive remote failures open the circuit.
	BreakerFailures uint32 `yaml:"breaker_failures" validate:"gte=1"`
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required_if=Enabled true"`
	Path      string `yaml:"path" validate:"required_if=Enabled true"`
}

// Default returns the configuration used when nothing is set.
func Default() *AppConfig {
	return &AppConfig{
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			SessionTTL:   30 * time.Minute,
			CORSOrigins:  []string{"*"},
		},
		Auth: AuthConfig{
			JWTSecret: "development-only-secret-change-me",
			Issuer:    "lifedash",
			TokenTTL:  24 * time.Hour,
		},
		Store: StoreConfig{
			Remote:          "memory",
			Local:           "memory",
			SQLitePath:      "lifedash.db",
			DynamoRegion:    "us-east-1",
			RemoteTimeout:   5 * time.Second,
			BreakerFailures: 5,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "lifedash",
			Path:      "/metrics",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and LIFEDASH_* variables, in increasing
// priority, then validates it. The env files (.env when none are given) are
// loaded into the environment first; missing files are ignored and already
// set variables are never overridden.
func Load(path string, envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the struct rules and the timezone.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location resolves Timezone; empty means the local zone.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsProduction reports whether the production environment is selected.
func (c *AppConfig) IsProduction() bool { return c.Environment == "production" }

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *AppConfig, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}

	str("ENV", &cfg.Environment)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("TIMEZONE", &cfg.Timezone)
	str("ADDR", &cfg.Server.Addr)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("JWT_ISSUER", &cfg.Auth.Issuer)
	str("STORE_REMOTE", &cfg.Store.Remote)
	str("STORE_LOCAL", &cfg.Store.Local)
	str("SQLITE_PATH", &cfg.Store.SQLitePath)
	str("DYNAMO_TABLE", &cfg.Store.DynamoTable)
	str("DYNAMO_REGION", &cfg.Store.DynamoRegion)
	str("DYNAMO_ENDPOINT", &cfg.Store.DynamoEndpoint)
	str("METRICS_NAMESPACE", &cfg.Metrics.Namespace)

	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS_ENABLED: %w", EnvPrefix, err)
		}
		cfg.Metrics.Enabled = b
	}
	if v, ok := lookup(EnvPrefix + "BREAKER_FAILURES"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%sBREAKER_FAILURES: %w", EnvPrefix, err)
		}
		cfg.Store.BreakerFailures = uint32(n)
	}

	for key, dst := range map[string]*time.Duration{
		"READ_TIMEOUT":   &cfg.Server.ReadTimeout,
		"WRITE_TIMEOUT":  &cfg.Server.WriteTimeout,
		"SESSION_TTL":    &cfg.Server.SessionTTL,
		"TOKEN_TTL":      &cfg.Auth.TokenTTL,
		"REMOTE_TIMEOUT": &cfg.Store.RemoteTimeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
