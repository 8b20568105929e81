// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// InsecureSessionSecret is the fallback signing secret. It exists so the
// app boots in development; startup logs a warning whenever it is in use
// and validate() rejects it in production.
const InsecureSessionSecret = "sculptor-secret-key"

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Auth      AuthConfig      `koanf:"auth"`
	Credits   CreditsConfig   `koanf:"credits"`
	Providers ProvidersConfig `koanf:"providers"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string   `koanf:"name"`
	Version     string   `koanf:"version"`
	Environment string   `koanf:"environment"`
	AdminUsers  []string `koanf:"admin_users"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type AuthConfig struct {
	SessionSecret string        `koanf:"session_secret"`
	TokenExpire   time.Duration `koanf:"token_expire"`
	Issuer        string        `koanf:"issuer"`
	Audience      string        `koanf:"audience"`
}

// CreditsConfig holds every fixed credit amount in the system. The
// payment password is a single shared secret standing in for a real
// payment processor; it must be replaced wholesale, not hardened, before
// any production use.
type CreditsConfig struct {
	SignupBonus     int64  `koanf:"signup_bonus"`
	ImageCost       int64  `koanf:"image_cost"`
	ModelCost       int64  `koanf:"model_cost"`
	FastModelCost   int64  `koanf:"fast_model_cost"`
	TopupAmount     int64  `koanf:"topup_amount"`
	PaymentPassword string `koanf:"payment_password"`
}

type ProvidersConfig struct {
	Entity EntityProviderConfig `koanf:"entity"`
	Image  ImageProviderConfig  `koanf:"image"`
	ThreeD ThreeDProviderConfig `koanf:"threed"`
}

type EntityProviderConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

type ImageProviderConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Size    string        `koanf:"size"`
	Quality string        `koanf:"quality"`
	Timeout time.Duration `koanf:"timeout"`
}

type ThreeDProviderConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type ArtifactsConfig struct {
	Dir string `koanf:"dir"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		k := koanf.New(".")

		if err := loadDefaults(k); err != nil {
			loadErr = fmt.Errorf("load defaults: %w", err)
			return
		}

		if configPath != "" {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				loadErr = fmt.Errorf("load config file: %w", err)
				return
			}
		}

		if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
			loadErr = fmt.Errorf("load env vars: %w", err)
			return
		}

		cfg = &Config{}
		if err := k.Unmarshal("", cfg); err != nil {
			loadErr = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		if err := validate(cfg); err != nil {
			loadErr = fmt.Errorf("validate config: %w", err)
			return
		}
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Sculptor",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "180s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"auth.session_secret": InsecureSessionSecret,
		"auth.token_expire":   "24h",
		"auth.issuer":         "sculptor",
		"auth.audience":       "sculptor-api",

		"credits.signup_bonus":     5,
		"credits.image_cost":       1,
		"credits.model_cost":       1,
		"credits.fast_model_cost":  3,
		"credits.topup_amount":     10,
		"credits.payment_password": "sculptor",

		"providers.entity.base_url": "https://api.together.xyz",
		"providers.entity.model":    "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo",
		"providers.entity.timeout":  "30s",

		"providers.image.base_url": "https://api.openai.com",
		"providers.image.model":    "dall-e-3",
		"providers.image.size":     "1024x1024",
		"providers.image.quality":  "hd",
		"providers.image.timeout":  "120s",

		"providers.threed.base_url": "https://api.stability.ai",
		"providers.threed.timeout":  "120s",

		"artifacts.dir": "artifacts",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "sculptor",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":        "database.url",
	"REDIS_URL":           "redis.url",
	"ENVIRONMENT":         "app.environment",
	"HOST":                "server.host",
	"PORT":                "server.port",
	"LOG_LEVEL":           "log.level",
	"LOG_FORMAT":          "log.format",
	"SECRET_KEY":          "auth.session_secret",
	"TOKEN_EXPIRE":        "auth.token_expire",
	"PAYMENT_PASSWORD":    "credits.payment_password",
	"TOPUP_AMOUNT":        "credits.topup_amount",
	"TOGETHER_API_KEY":    "providers.entity.api_key",
	"TOGETHER_BASE_URL":   "providers.entity.base_url",
	"TOGETHER_MODEL":      "providers.entity.model",
	"OPENAI_API_KEY":      "providers.image.api_key",
	"OPENAI_BASE_URL":     "providers.image.base_url",
	"STABILITY_API_KEY":   "providers.threed.api_key",
	"STABILITY_BASE_URL":  "providers.threed.base_url",
	"ARTIFACTS_DIR":       "artifacts.dir",
	"RATE_LIMIT_REQUESTS": "rate_limit.requests",
	"RATE_LIMIT_WINDOW":   "rate_limit.window",
	"RATE_LIMIT_BURST":    "rate_limit.burst",
	"OTEL_ENDPOINT":       "otel.endpoint",
	"OTEL_SERVICE_NAME":   "otel.service_name",
	"OTEL_ENABLED":        "otel.enabled",
	"OTEL_INSECURE":       "otel.insecure",
	"OTEL_SAMPLE_RATE":    "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.App.Environment == "production" {
		if c.Auth.SessionSecret == InsecureSessionSecret {
			return fmt.Errorf("SECRET_KEY must be overridden in production")
		}
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.Credits.SignupBonus < 0 {
		return fmt.Errorf("credits.signup_bonus must be non-negative")
	}

	if c.Credits.ImageCost < 1 || c.Credits.ModelCost < 1 ||
		c.Credits.FastModelCost < 1 {
		return fmt.Errorf("generation costs must be at least 1 credit")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (c *Config) UsesInsecureSecret() bool {
	return c.Auth.SessionSecret == InsecureSessionSecret
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
