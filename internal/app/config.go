package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Catalog sources.
const (
	SourceDatoCMS  = "datocms"
	SourcePostgres = "postgres"
)

// Cart storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL for relative image paths" flag:"image-base-url"`
	Catalog      CatalogConfig
	Order        OrderConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CatalogConfig selects and tunes the catalog source.
type CatalogConfig struct {
	Source      string        `default:"datocms" usage:"Catalog source: datocms or postgres"`
	DatabaseURL string        `env:"DATABASE_URL" usage:"PostgreSQL connection URL (STOREFRONT_CATALOG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	CacheTTL    time.Duration `default:"60s" usage:"How long catalog reads are cached" flag:"cache-ttl"`
	Warm        bool          `default:"true" usage:"Preload the catalog cache at startup"`
	DatoCMS     DatoCMSConfig `env:"DATOCMS" yaml:"datocms"`
}

// DatoCMSConfig configures the headless CMS client.
type DatoCMSConfig struct {
	Endpoint string        `default:"https://graphql.datocms.com/" usage:"GraphQL endpoint"`
	Token    string        `usage:"Read-only API token (or DATOCMS_READONLY_TOKEN)" flag:"datocms-token"`
	Timeout  time.Duration `default:"10s" usage:"Request timeout"`
}

// OrderConfig configures the messaging deep links.
type OrderConfig struct {
	BaseURL     string `default:"https://wa.me" usage:"Click-to-chat base URL"`
	Destination string `default:"923062464217" usage:"Phone number receiving orders"`
	SiteURL     string `default:"https://zm-gadgets.com" usage:"Public storefront origin for product links"`
}

// CartConfig configures local cart persistence for the CLI.
type CartConfig struct {
	Storage string `default:"file" usage:"Cart storage: file, sqlite or memory"`
	// Path is a directory for file storage or a database file for sqlite.
	// Empty selects a location under the user config directory.
	Path string `default:"" usage:"Cart storage location"`
	Key  string `default:"zm-cart" usage:"Storage key of the cart"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
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

func loaderConfig(skipFlags bool) aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "STOREFRONT",
		SkipFlags: skipFlags,
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	}
}

// LoadConfig loads the server configuration from environment variables,
// flags and YAML config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	cfg, err := load(false)
	if err != nil {
		return nil, err
	}
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCLIConfig loads configuration for command line tools that own their
// flags. Environment variables and config files still apply. The catalog
// settings are validated only once a command needs the catalog.
func LoadCLIConfig() (*Config, error) {
	return load(true)
}

func load(skipFlags bool) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, loaderConfig(skipFlags)).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// Validate reports missing settings for the selected catalog source.
func (c CatalogConfig) Validate() error {
	switch c.Source {
	case SourceDatoCMS:
		if c.DatoCMS.Token == "" {
			return errors.New("datocms token is required: set STOREFRONT_CATALOG_DATOCMS_TOKEN or DATOCMS_READONLY_TOKEN")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set STOREFRONT_CATALOG_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown catalog source %q", c.Source)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT onto the configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Catalog.DatabaseURL == "" {
		c.Catalog.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Catalog.DatoCMS.Token == "" {
		c.Catalog.DatoCMS.Token = os.Getenv("DATOCMS_READONLY_TOKEN")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
