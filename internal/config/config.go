package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	PlatformDevice = "device"
	PlatformWeb    = "web"

	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config holds runtime configuration sourced from defaults, an optional
// YAML file, and env vars, in that order of precedence.
type Config struct {
	Port               string           `koanf:"port"`
	Platform           string           `koanf:"platform"`
	CORSAllowedOrigins string           `koanf:"cors_allowed_origins"`
	RateLimitPerMinute int              `koanf:"rate_limit_per_minute"`
	AdminAPIKey        string           `koanf:"admin_api_key"`
	UpgradeURL         string           `koanf:"upgrade_url"`
	Storage            StorageConfig    `koanf:"storage"`
	Completion         CompletionConfig `koanf:"completion"`
	Auth               AuthConfig       `koanf:"auth"`
	Log                LogConfig        `koanf:"log"`
}

type StorageConfig struct {
	Backend     string `koanf:"backend"`
	DatabaseURL string `koanf:"database_url"`
	BadgerPath  string `koanf:"badger_path"`
	RedisURL    string `koanf:"redis_url"`
	Secret      string `koanf:"secret"`
	Encrypt     bool   `koanf:"encrypt"`
}

type CompletionConfig struct {
	APIKey      string        `koanf:"api_key"`
	URL         string        `koanf:"url"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
	RatePerSec  float64       `koanf:"rate_per_sec"`
	Referer     string        `koanf:"referer"`
	Title       string        `koanf:"title"`
}

type AuthConfig struct {
	JWTSecret     string `koanf:"jwt_secret"`
	JWTIssuer     string `koanf:"jwt_issuer"`
	JWTTTLMinutes int    `koanf:"jwt_ttl_minutes"`
	UserInfoURL   string `koanf:"userinfo_url"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() Config {
	return Config{
		Port:               "8080",
		Platform:           PlatformWeb,
		CORSAllowedOrigins: "*",
		RateLimitPerMinute: 30,
		UpgradeURL:         "/subscription/upgrade",
		Storage: StorageConfig{
			BadgerPath: "data/profiles",
		},
		Completion: CompletionConfig{
			URL:         "https://openrouter.ai/api/v1/chat/completions",
			Model:       "mistralai/mistral-7b-instruct",
			Temperature: 0.7,
			Timeout:     30 * time.Second,
			RatePerSec:  2,
			Referer:     "https://github.com/hongminglow/horoscope-be",
			Title:       "Horoscope App",
		},
		Auth: AuthConfig{
			JWTIssuer:     "horoscope-backend",
			JWTTTLMinutes: 60,
			UserInfoURL:   "https://www.googleapis.com/userinfo/v2/me",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envMappings maps flat env var names onto koanf keys.
var envMappings = map[string]string{
	"PORT":                    "port",
	"PLATFORM":                "platform",
	"CORS_ALLOWED_ORIGINS":    "cors_allowed_origins",
	"RATE_LIMIT_PER_MINUTE":   "rate_limit_per_minute",
	"ADMIN_API_KEY":           "admin_api_key",
	"UPGRADE_URL":             "upgrade_url",
	"STORAGE_BACKEND":         "storage.backend",
	"DATABASE_URL":            "storage.database_url",
	"BADGER_PATH":             "storage.badger_path",
	"REDIS_URL":               "storage.redis_url",
	"STORAGE_SECRET":          "storage.secret",
	"STORAGE_ENCRYPT":         "storage.encrypt",
	"OPENROUTER_API_KEY":      "completion.api_key",
	"OPENROUTER_API_URL":      "completion.url",
	"COMPLETION_MODEL":        "completion.model",
	"COMPLETION_TEMPERATURE":  "completion.temperature",
	"COMPLETION_TIMEOUT":      "completion.timeout",
	"COMPLETION_RATE_PER_SEC": "completion.rate_per_sec",
	"APP_REFERER":             "completion.referer",
	"APP_TITLE":               "completion.title",
	"JWT_SECRET":              "auth.jwt_secret",
	"JWT_ISSUER":              "auth.jwt_issuer",
	"JWT_TTL_MINUTES":         "auth.jwt_ttl_minutes",
	"USERINFO_URL":            "auth.userinfo_url",
	"LOG_LEVEL":               "log.level",
	"LOG_FORMAT":              "log.format",
}

// Load reads configuration and performs validation.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(name string) string {
	if key, ok := envMappings[name]; ok {
		return key
	}
	return ""
}

func findConfigFile() string {
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) normalize() error {
	c.Port = fallback(c.Port, "8080")
	c.Platform = strings.ToLower(fallback(c.Platform, PlatformWeb))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Auth.JWTSecret = strings.TrimSpace(c.Auth.JWTSecret)
	c.Completion.APIKey = strings.TrimSpace(c.Completion.APIKey)

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Platform != PlatformDevice && c.Platform != PlatformWeb {
		return fmt.Errorf("PLATFORM must be %q or %q", PlatformDevice, PlatformWeb)
	}
	if c.Storage.Backend == "" {
		if c.Platform == PlatformDevice {
			c.Storage.Backend = BackendBadger
		} else {
			c.Storage.Backend = BackendPostgres
		}
	}
	if c.Platform == PlatformDevice {
		c.Storage.Encrypt = true
	}
	if c.Storage.Encrypt && strings.TrimSpace(c.Storage.Secret) == "" {
		c.Storage.Secret = c.Auth.JWTSecret
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendBadger:
	case BackendPostgres:
		if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres storage backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.Storage.RedisURL) == "" {
			return errors.New("REDIS_URL is required for the redis storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.Auth.JWTTTLMinutes <= 0 {
		c.Auth.JWTTTLMinutes = 60
	}
	if c.Completion.Timeout <= 0 {
		c.Completion.Timeout = 30 * time.Second
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 30
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// JWTTTL is the lifetime of issued session tokens.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.Auth.JWTTTLMinutes) * time.Minute
}

// CORSOrigins splits the configured origin list.
func (c Config) CORSOrigins() []string {
	return parseCSV(fallback(c.CORSAllowedOrigins, "*"))
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
