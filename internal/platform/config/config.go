package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GLOWBOOK_"

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"server.corsorigins": true,
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Audit    AuditConfig    `koanf:"audit"`
}

type ServerConfig struct {
	Host        string          `koanf:"host"`
	Port        int             `koanf:"port"`
	Production  bool            `koanf:"production"`
	TrustProxy  bool            `koanf:"trustproxy"`
	CORSOrigins []string        `koanf:"corsorigins"`
	RateLimit   RateLimitConfig `koanf:"ratelimit"`
}

// RateLimitConfig bounds requests per caller. Authenticated routes and the
// public auth routes have separate budgets.
type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	AuthRequests int           `koanf:"authrequests"`
	Window       time.Duration `koanf:"window"`
}

type DatabaseConfig struct {
	URL            string `koanf:"url"`
	MigrationsPath string `koanf:"migrationspath"`
	MaxConns       int    `koanf:"maxconns"`
}

// RedisConfig configures the optional read-through cache. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	SalonTTL time.Duration `koanf:"salonttl"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type AuthConfig struct {
	DevMode bool      `koanf:"devmode"`
	JWT     JWTConfig `koanf:"jwt"`
}

type JWTConfig struct {
	SigningKey         string `koanf:"signingkey"`
	Issuer             string `koanf:"issuer"`
	ExpiryHours        int    `koanf:"expiryhours"`
	RefreshExpiryHours int    `koanf:"refreshexpiryhours"`
}

type AuditConfig struct {
	BufferSize    int           `koanf:"buffersize"`
	BatchSize     int           `koanf:"batchsize"`
	FlushInterval time.Duration `koanf:"flushinterval"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func Load(configPaths ...string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	_ = k.Load(confmap.Provider(map[string]any{
		"server.port":                   8080,
		"server.host":                   "0.0.0.0",
		"server.production":             false,
		"server.trustproxy":             false,
		"server.corsorigins":            []string{},
		"server.ratelimit.requests":     300,
		"server.ratelimit.authrequests": 20,
		"server.ratelimit.window":       "1m",
		"database.maxconns":             25,
		"database.migrationspath":       "migrations",
		"redis.salonttl":                "5m",
		"log.level":                     "info",
		"log.format":                    "json",
		"auth.devmode":                  false,
		"auth.jwt.issuer":               "glowbook",
		"auth.jwt.expiryhours":          24,
		"auth.jwt.refreshexpiryhours":   168,
		"audit.buffersize":              4096,
		"audit.batchsize":               100,
		"audit.flushinterval":           "500ms",
	}, "."), nil)

	// YAML file (optional)
	for _, path := range configPaths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// Config file is optional, skip if not found
			continue
		}
	}

	// Environment variables override everything
	// GLOWBOOK_SERVER_PORT -> server.port
	// Lists such as GLOWBOOK_SERVER_CORSORIGINS are comma-separated.
	_ = k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func envValue(name, value string) (string, any) {
	key := strings.ReplaceAll(
		strings.ToLower(strings.TrimPrefix(name, envPrefix)),
		"_", ".",
	)
	if !listKeys[key] {
		return key, value
	}
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit.Requests <= 0 || c.Server.RateLimit.AuthRequests <= 0 || c.Server.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("server.ratelimit values must be positive"))
	}
	if !c.Auth.DevMode && len(c.Auth.JWT.SigningKey) < 32 {
		errs = append(errs, errors.New("auth.jwt.signingkey must be at least 32 characters"))
	}
	if c.Auth.DevMode && c.Server.Production {
		errs = append(errs, errors.New("auth.devmode cannot be enabled in production"))
	}
	return errors.Join(errs...)
}
