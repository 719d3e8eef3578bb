package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process and the admin CLI.
// Values come from the environment; a local .env file is loaded when present.
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	HTTP    HTTPConfig
	Bland   BlandConfig
	Storage StorageConfig
}

type AppConfig struct {
	Env     string `env:"APP_ENV" envDefault:"local"`
	Host    string `env:"HOST" envDefault:"0.0.0.0"`
	Port    int    `env:"PORT" envDefault:"8000"`
	Version string `env:"APP_VERSION" envDefault:"1.0.0"`
	// AutoMigrate applies pending migrations before the server starts.
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"false"`
}

type DBConfig struct {
	// URL is a libpq style connection string or postgres:// URL. Never log it.
	URL      string `env:"DATABASE_URL,required"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"25"`
}

type RedisConfig struct {
	// URL is optional; without it token revocation and import caps are disabled.
	URL string `env:"REDIS_URL"`
}

type AuthConfig struct {
	SecretKey                string `env:"SECRET_KEY,required"`
	Issuer                   string `env:"JWT_ISSUER"`
	Audience                 string `env:"JWT_AUDIENCE"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"60"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"7"`
}

type HTTPConfig struct {
	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	MaxUploadSize      int64    `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`
	ImportConcurrency  int      `env:"IMPORT_CONCURRENCY" envDefault:"2"`
}

type BlandConfig struct {
	APIKey        string `env:"BLAND_AI_API_KEY"`
	BaseURL       string `env:"BLAND_AI_BASE_URL" envDefault:"https://api.bland.ai"`
	WebhookURL    string `env:"BLAND_WEBHOOK_URL"`
	WebhookSecret string `env:"BLAND_WEBHOOK_SECRET"`
}

// StorageConfig points at an S3 compatible bucket used to archive CSV files.
// Leaving Endpoint empty disables archiving.
type StorageConfig struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Bucket    string `env:"S3_BUCKET" envDefault:"lead-files"`
	UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadDB reads only what the admin CLI needs to reach Postgres.
func LoadDB() (DBConfig, error) {
	_ = godotenv.Load()

	var db DBConfig
	if err := env.Parse(&db); err != nil {
		return DBConfig{}, err
	}
	if strings.TrimSpace(db.URL) == "" {
		return DBConfig{}, errors.New("DATABASE_URL is required")
	}
	if db.MaxConns <= 0 {
		return DBConfig{}, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", db.MaxConns)
	}
	return db, nil
}

func (c *Config) normalize() {
	c.App.Env = strings.TrimSpace(c.App.Env)
	origins := make([]string, 0, len(c.HTTP.AllowedOrigins))
	for _, o := range c.HTTP.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	c.HTTP.AllowedOrigins = origins
	c.Bland.BaseURL = strings.TrimRight(strings.TrimSpace(c.Bland.BaseURL), "/")
}

func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port, got %d", c.App.Port))
	}

	if strings.TrimSpace(c.DB.URL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.DB.MaxConns <= 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DB.MaxConns))
	}

	if c.Auth.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	} else if c.IsProduction() && len(c.Auth.SecretKey) < 32 {
		errs = append(errs, errors.New("SECRET_KEY must be at least 32 bytes in production"))
	}
	if c.IsProduction() {
		if c.Auth.Issuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.Audience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.Auth.AccessTokenExpireMinutes))
	}
	if c.Auth.RefreshTokenExpireDays <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be positive, got %d", c.Auth.RefreshTokenExpireDays))
	}
	if c.Auth.AccessTokenExpireMinutes > 0 && c.Auth.RefreshTokenExpireDays > 0 && c.Auth.RefreshTTL() <= c.Auth.AccessTTL() {
		errs = append(errs, errors.New("refresh token lifetime must exceed access token lifetime"))
	}

	if len(c.HTTP.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("ALLOWED_ORIGINS must list at least one origin"))
	}
	for _, o := range c.HTTP.AllowedOrigins {
		if o == "*" {
			if c.IsProduction() {
				errs = append(errs, errors.New("ALLOWED_ORIGINS must not be * in production"))
			}
			continue
		}
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("ALLOWED_ORIGINS contains invalid origin %q", o))
		}
	}
	if c.HTTP.MaxUploadSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.HTTP.MaxUploadSize))
	}
	if c.HTTP.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.HTTP.RateLimitPerMinute))
	}
	if c.HTTP.ImportConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_CONCURRENCY must be positive, got %d", c.HTTP.ImportConcurrency))
	}

	if c.Bland.BaseURL != "" {
		if u, err := url.Parse(c.Bland.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("BLAND_AI_BASE_URL is not a valid URL: %q", c.Bland.BaseURL))
		}
	}

	if c.Storage.Endpoint != "" {
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			errs = append(errs, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set"))
		}
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when S3_ENDPOINT is set"))
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return net.JoinHostPort(c.App.Host, strconv.Itoa(c.App.Port))
}

func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}

func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTokenExpireDays) * 24 * time.Hour
}

// ArchiveEnabled reports whether CSV archiving to object storage is configured.
func (s StorageConfig) ArchiveEnabled() bool {
	return s.Endpoint != ""
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
