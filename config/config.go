package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config global application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Mail         MailConfig         `mapstructure:"mail"`
	Log          LogConfig          `mapstructure:"log"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Integration  IntegrationConfig  `mapstructure:"integration"`
	Feature      FeatureConfig      `mapstructure:"feature"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// ServerConfig HTTP server
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// BaseURL public address of the frontend; signing links are built from it
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL connection
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT authentication
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault  time.Duration `mapstructure:"refresh_token_ttl_default"`
	RefreshTokenTTLRemember time.Duration `mapstructure:"refresh_token_ttl_remember_me"`
}

// MailConfig SMTP delivery. An empty SMTPHost switches to the logging sender.
type MailConfig struct {
	SMTPHost    string   `mapstructure:"smtp_host"`
	SMTPPort    int      `mapstructure:"smtp_port"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	From        string   `mapstructure:"from"`
	AdminEmails []string `mapstructure:"admin_emails"`
}

// LogConfig logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig file storage for generated documents and identity uploads
type StorageConfig struct {
	UploadDir         string   `mapstructure:"upload_dir"`
	MaxUploadSize     int64    `mapstructure:"max_upload_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// RegistrationConfig registration wizard and signing links
type RegistrationConfig struct {
	SigningLinkTTL       time.Duration `mapstructure:"signing_link_ttl"`
	LegacySigningLinkTTL time.Duration `mapstructure:"legacy_signing_link_ttl"`
	UsernameMaxAttempts  int           `mapstructure:"username_max_attempts"`
	TempPasswordLength   int           `mapstructure:"temp_password_length"`
	// StrictTokenSigner requires the attested full name on a token signature
	// to match the declared party.
	StrictTokenSigner bool `mapstructure:"strict_token_signer"`
}

// IntegrationConfig remote account provisioning
type IntegrationConfig struct {
	OtherAppURL       string        `mapstructure:"other_app_url"`
	OtherAppAPIKey    string        `mapstructure:"other_app_api_key"`
	WordPressURL      string        `mapstructure:"wordpress_url"`
	WordPressUsername string        `mapstructure:"wordpress_username"`
	WordPressPassword string        `mapstructure:"wordpress_password"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// FeatureConfig feature switches
type FeatureConfig struct {
	LegacyRegisterEnabled bool `mapstructure:"legacy_register_enabled"`
}

// MetricsConfig Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from .env, the config file and the environment.
// Precedence: environment > config file > defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:5173")
	v.SetDefault("server.max_body_bytes", 100<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "acadef")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Europe/Paris")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "30m")
	v.SetDefault("auth.refresh_token_ttl_default", "24h")
	v.SetDefault("auth.refresh_token_ttl_remember_me", "168h")

	v.SetDefault("mail.smtp_host", "")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "ne-pas-repondre@acadef.fr")
	v.SetDefault("mail.admin_emails", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.upload_dir", "./uploads")
	v.SetDefault("storage.max_upload_size", 16<<20)
	v.SetDefault("storage.allowed_extensions", []string{"pdf", "jpg", "jpeg", "png"})

	v.SetDefault("registration.signing_link_ttl", "720h")
	v.SetDefault("registration.legacy_signing_link_ttl", "168h")
	v.SetDefault("registration.username_max_attempts", 5)
	v.SetDefault("registration.temp_password_length", 12)
	v.SetDefault("registration.strict_token_signer", true)

	v.SetDefault("integration.other_app_url", "")
	v.SetDefault("integration.other_app_api_key", "")
	v.SetDefault("integration.wordpress_url", "")
	v.SetDefault("integration.wordpress_username", "")
	v.SetDefault("integration.wordpress_password", "")
	v.SetDefault("integration.timeout", "10s")

	v.SetDefault("feature.legacy_register_enabled", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("ACADEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid config: auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("invalid config: storage.upload_dir is required")
	}
	if c.Registration.SigningLinkTTL <= 0 || c.Registration.LegacySigningLinkTTL <= 0 {
		return fmt.Errorf("invalid config: signing link TTLs must be positive")
	}
	if c.Registration.UsernameMaxAttempts < 0 {
		return fmt.Errorf("invalid config: registration.username_max_attempts must not be negative")
	}
	return nil
}
