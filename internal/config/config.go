package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Auth       `yaml:"auth"`
	Links      `yaml:"links"`
	Shield     `yaml:"shield"`
	Analytics  `yaml:"analytics"`
	Geo        `yaml:"geo"`
	RateLimit  `yaml:"rate_limit"`
}

// HTTPServer holds HTTP listener configuration.
type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://127.0.0.1:3000"`
}

// Database holds database connection settings.
type Database struct {
	Driver          string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"` // postgres, sqlite or memory
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"linkhub"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH" env-default:"linkhub.db"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	SeedData        bool   `yaml:"seed_data" env:"DB_SEED_DATA" env-default:"true"`
	LogQueries      bool   `yaml:"log_queries" env:"DB_LOG_QUERIES" env-default:"false"`
}

// Auth holds settings for validating tokens issued by the identity provider.
type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me"`
	Issuer    string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"LinkHub-Backend"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"15m"`
}

// Links holds link creation settings.
type Links struct {
	BaseURL         string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
	MaxSlugAttempts int    `yaml:"max_slug_attempts" env:"MAX_SLUG_ATTEMPTS" env-default:"50"`
	QRSize          int    `yaml:"qr_size" env:"QR_SIZE" env-default:"256"`
}

// Shield holds the resolver policy knobs.
type Shield struct {
	DomainPool       []string      `yaml:"domain_pool" env:"SHIELD_DOMAIN_POOL" env-separator:","`
	RotationStrategy string        `yaml:"rotation_strategy" env:"SHIELD_ROTATION_STRATEGY" env-default:"round-robin"` // round-robin or visitor-hash
	RotationWindow   time.Duration `yaml:"rotation_window" env:"SHIELD_ROTATION_WINDOW" env-default:"1h"`
	AdaptiveVariants int           `yaml:"adaptive_variants" env:"SHIELD_ADAPTIVE_VARIANTS" env-default:"4"`
	AdaptivePolicy   string        `yaml:"adaptive_policy" env:"SHIELD_ADAPTIVE_POLICY" env-default:"window"` // window or visitor
	AdaptiveWindow   time.Duration `yaml:"adaptive_window" env:"SHIELD_ADAPTIVE_WINDOW" env-default:"1h"`
	BotMinElapsed    time.Duration `yaml:"bot_min_elapsed" env:"SHIELD_BOT_MIN_ELAPSED" env-default:"150ms"`
	RegexesPath      string        `yaml:"regexes_path" env:"UA_REGEXES_PATH"`
}

// Analytics holds aggregation and event processing settings.
type Analytics struct {
	Timezone         string        `yaml:"timezone" env:"ANALYTICS_TIMEZONE" env-default:"UTC"`
	TopN             int           `yaml:"top_n" env:"ANALYTICS_TOP_N" env-default:"5"`
	DefaultRangeDays int           `yaml:"default_range_days" env:"ANALYTICS_DEFAULT_RANGE_DAYS" env-default:"7"`
	CacheSize        int           `yaml:"cache_size" env:"ANALYTICS_CACHE_SIZE" env-default:"512"`
	Workers          int           `yaml:"workers" env:"ANALYTICS_WORKERS" env-default:"3"`
	BufferSize       int           `yaml:"buffer_size" env:"ANALYTICS_BUFFER_SIZE" env-default:"1000"`
	RetryAttempts    int           `yaml:"retry_attempts" env:"ANALYTICS_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelay       time.Duration `yaml:"retry_delay" env:"ANALYTICS_RETRY_DELAY" env-default:"1s"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" env:"ANALYTICS_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Geo holds the country lookup settings.
type Geo struct {
	Enabled  bool          `yaml:"enabled" env:"GEO_ENABLED" env-default:"true"`
	Endpoint string        `yaml:"endpoint" env:"GEO_ENDPOINT" env-default:"https://ipwho.is/"`
	Timeout  time.Duration `yaml:"timeout" env:"GEO_TIMEOUT" env-default:"2s"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"GEO_CACHE_TTL" env-default:"24h"`
}

// RateLimit holds per-client limits for public resolve endpoints.
type RateLimit struct {
	PerMinute int           `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"120"`
	Burst     int           `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
	IdleTTL   time.Duration `yaml:"idle_ttl" env:"RATE_LIMIT_IDLE_TTL" env-default:"10m"`

	// Прокси, которым доверяем X-Forwarded-For (CIDR или IP)
	TrustedProxies []string `yaml:"trusted_proxies" env:"RATE_LIMIT_TRUSTED_PROXIES" env-separator:","`
}

// Location resolves the analytics timezone.
func (a Analytics) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid analytics timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from path when it exists, otherwise from the environment.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Shield.RotationStrategy {
	case "round-robin", "visitor-hash":
	default:
		return fmt.Errorf("unsupported rotation strategy %q", c.Shield.RotationStrategy)
	}
	switch c.Shield.AdaptivePolicy {
	case "window", "visitor":
	default:
		return fmt.Errorf("unsupported adaptive policy %q", c.Shield.AdaptivePolicy)
	}
	if c.Analytics.TopN <= 0 {
		return fmt.Errorf("analytics top_n must be positive")
	}
	if c.Links.MaxSlugAttempts <= 0 {
		return fmt.Errorf("links max_slug_attempts must be positive")
	}
	if _, err := c.Analytics.Location(); err != nil {
		return err
	}
	return nil
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	// Check if config file path is specified
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}

	return cfg
}
