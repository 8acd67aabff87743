package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bingo/internal/catalog"
	"bingo/internal/util"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	StaticDir   string `yaml:"static_dir"`
	CORSOrigins string `yaml:"cors_origins"`
	// TrustedProxies are IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DBConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

type RateLimitConfig struct {
	// Requests per Window and client. Zero disables limiting.
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	// RedisURL switches from the in-process limiter to a shared Redis one.
	RedisURL string `yaml:"redis_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CatalogConfig struct {
	URL string `yaml:"url"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":3000",
			StaticDir:   "web/dist",
			CORSOrigins: "*",
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "data/bingo.db",
		},
		Auth: AuthConfig{
			BcryptCost: 10,
		},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Catalog: CatalogConfig{
			URL: catalog.DefaultURL,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
// An empty path falls back to BINGO_CONFIG.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("BINGO_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	util.OverrideString("BINGO_ADDR", &cfg.Server.Addr)
	util.OverrideString("BINGO_STATIC_DIR", &cfg.Server.StaticDir)
	util.OverrideString("BINGO_CORS_ORIGINS", &cfg.Server.CORSOrigins)
	util.OverrideList("BINGO_TRUSTED_PROXIES", &cfg.Server.TrustedProxies)
	util.OverrideString("BINGO_DB_DRIVER", &cfg.DB.Driver)
	util.OverrideString("BINGO_DB_PATH", &cfg.DB.Path)
	util.OverrideString("BINGO_DATABASE_URL", &cfg.DB.URL)
	util.OverrideString("BINGO_REDIS_URL", &cfg.RateLimit.RedisURL)
	util.OverrideString("BINGO_LOG_LEVEL", &cfg.Log.Level)
	util.OverrideString("BINGO_LOG_FORMAT", &cfg.Log.Format)
	util.OverrideString("BINGO_CATALOG_URL", &cfg.Catalog.URL)

	if err := util.OverrideInt("BINGO_BCRYPT_COST", &cfg.Auth.BcryptCost); err != nil {
		return err
	}
	if err := util.OverrideInt("BINGO_RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests); err != nil {
		return err
	}
	return util.OverrideDuration("BINGO_RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			errs = append(errs, errors.New("db.path is required for sqlite"))
		}
	case "postgres":
		if c.DB.URL == "" {
			errs = append(errs, errors.New("db.url is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown db.driver %q", c.DB.Driver))
	}
	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, fmt.Errorf("server.trusted_proxies: invalid entry %q", proxy))
			}
		}
	}
	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("rate_limit.requests must not be negative"))
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
