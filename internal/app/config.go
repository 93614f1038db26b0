package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (KASTKAR_ prefix), a .env file, flags, or YAML
// config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage   StorageConfig
	Owner     OwnerConfig
	Shop      ShopConfig
	SMTP      SMTPConfig
	Weather   WeatherConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// StorageConfig selects where snapshots are kept.
type StorageConfig struct {
	Driver      string `default:"file" usage:"Snapshot storage driver: file, redis or postgres"`
	Path        string `default:"data" usage:"Directory for the file driver"`
	Gzip        bool   `default:"false" usage:"Gzip snapshot files (file driver)"`
	RedisURL    string `usage:"Redis connection URL (redis driver)" flag:"redis-url"`
	DatabaseURL string `usage:"PostgreSQL connection URL (postgres driver, KASTKAR_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// OwnerConfig holds the owner's login. An empty ID disables owner mode.
type OwnerConfig struct {
	ID      string `usage:"Owner login id"`
	KeyHash string `usage:"Hex HMAC-SHA256 of the owner key under Pepper"`
	Pepper  string `usage:"HMAC pepper for the owner key"`
}

// ShopConfig holds shop identity settings.
type ShopConfig struct {
	WhatsAppContact string `default:"918999678500" usage:"WhatsApp number orders are sent to"`
}

// SMTPConfig enables an email copy of each order when Host is set.
type SMTPConfig struct {
	Host     string `usage:"SMTP host; empty disables order email"`
	Port     int    `default:"587" usage:"SMTP port"`
	Username string `usage:"SMTP username"`
	Password string `usage:"SMTP password"`
	From     string `usage:"Sender address"`
	To       string `usage:"Owner address receiving order copies"`
}

// WeatherConfig controls the simulated forecast.
type WeatherConfig struct {
	Location string `default:"Keliweli" usage:"Location shown on the forecast"`
	Seed     uint64 `default:"1" usage:"Forecast generator seed"`
}

// RateLimitConfig controls the per-client sliding window budgets. Guest
// writes (ratings, alerts, visitor sign-ups, checkouts) are counted apart
// under the tighter Writes budget.
type RateLimitConfig struct {
	Max          int           `default:"100" usage:"Max requests per window"`
	Window       time.Duration `default:"1m"  usage:"Rate limit window duration"`
	WritesMax    int           `default:"10"  usage:"Max guest write requests per writes window" flag:"rate-limit-writes-max"`
	WritesWindow time.Duration `default:"10m" usage:"Guest write rate limit window" flag:"rate-limit-writes-window"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from .env, environment variables and YAML
// config files, then applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KASTKAR",
		Files:     []string{"config.yaml", "/etc/kastkar/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Path == "" {
			return errors.New("storage path is required for the file driver")
		}
	case DriverRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("redis URL is required: set KASTKAR_STORAGE_REDIS_URL")
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set KASTKAR_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 || c.RateLimit.WritesMax <= 0 || c.RateLimit.WritesWindow <= 0 {
		return errors.New("rate limit budgets and windows must be positive")
	}
	if c.Owner.ID != "" && c.Owner.KeyHash == "" {
		return errors.New("owner key hash is required when an owner id is set")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL, REDIS_URL and PORT
// to the application's KASTKAR_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	c.Storage.ApplyEnv()
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
