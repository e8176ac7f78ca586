package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Graph authentication modes
const (
	AuthModeClientCredentials = "client_credentials"
	AuthModeRefreshToken      = "refresh_token"
	AuthModeStatic            = "static"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
	Graph        GraphConfig        `mapstructure:"graph"`
	Audit        AuditConfig        `mapstructure:"audit"`
	Mail         MailConfig         `mapstructure:"mail"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are honoured. Empty means the peer address is used.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateLimitingConfig holds rate limiting configuration for the send endpoint
type RateLimitingConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// GraphConfig holds Microsoft Graph configuration
type GraphConfig struct {
	// BaseURL is the Graph API root (defaults to https://graph.microsoft.com/v1.0)
	BaseURL string `mapstructure:"base_url"`
	// AuthMode selects how tokens are obtained: "client_credentials", "refresh_token" or "static"
	AuthMode string `mapstructure:"auth_mode"`
	// TenantID is the Azure AD tenant ("common" for multi-tenant delegated apps)
	TenantID string `mapstructure:"tenant_id"`
	// ClientID is the application (client) ID
	ClientID string `mapstructure:"client_id"`
	// ClientSecret is the application secret
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for delegated auth on behalf of a signed-in user
	RefreshToken string `mapstructure:"refresh_token"`
	// AccessToken is a pre-acquired token used by the "static" mode
	AccessToken string `mapstructure:"access_token"`
	// SenderAddress is the mailbox mail is sent from. Empty means the signed-in user.
	// Required for client_credentials since app-only tokens have no "me".
	SenderAddress string `mapstructure:"sender_address"`
	// Timeout bounds each Graph request
	Timeout time.Duration `mapstructure:"timeout"`
}

// Validate checks that the fields required by the auth mode are set
func (c GraphConfig) Validate() error {
	var errs []error
	switch c.AuthMode {
	case AuthModeClientCredentials:
		switch strings.ToLower(c.TenantID) {
		case "":
			errs = append(errs, errors.New("graph.tenant_id is required"))
		case "common", "organizations", "consumers":
			errs = append(errs, fmt.Errorf("graph.tenant_id %q cannot issue app-only tokens, set the directory tenant ID", c.TenantID))
		}
		if c.ClientID == "" {
			errs = append(errs, errors.New("graph.client_id is required"))
		}
		if c.ClientSecret == "" {
			errs = append(errs, errors.New("graph.client_secret is required"))
		}
		if c.SenderAddress == "" {
			errs = append(errs, errors.New("graph.sender_address is required for client_credentials"))
		}
	case AuthModeRefreshToken:
		if c.ClientID == "" {
			errs = append(errs, errors.New("graph.client_id is required"))
		}
		if c.RefreshToken == "" {
			errs = append(errs, errors.New("graph.refresh_token is required"))
		}
	case AuthModeStatic:
		if c.AccessToken == "" {
			errs = append(errs, errors.New("graph.access_token is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("graph.auth_mode %q is not supported", c.AuthMode))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid graph config: %w", errors.Join(errs...))
	}
	return nil
}

// Configured reports whether any credentials were supplied for the app controller
func (c GraphConfig) Configured() bool {
	return c.ClientID != "" || c.AccessToken != ""
}

// AuditConfig holds mail audit settings
type AuditConfig struct {
	// Enabled controls whether sends are recorded in the mail_audit table
	Enabled bool `mapstructure:"enabled"`
	// APIKey protects GET /api/v1/mail/sent. Empty disables the endpoint.
	APIKey string `mapstructure:"api_key"`
}

// MailConfig holds send endpoint settings
type MailConfig struct {
	// APIKey authorizes POST /api/v1/mail/send callers that rely on the
	// application credentials. Empty disables app-mode sends over HTTP.
	APIKey string `mapstructure:"api_key"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/graphconnect")

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables
	v.SetEnvPrefix("GRAPHCONNECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.trusted_proxies", []string{})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "graphconnect")
	v.SetDefault("database.user", "graphconnect")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.limit", 30)
	v.SetDefault("rate_limiting.window", "1m")

	// Graph defaults. Credentials are env-only in practice
	// (GRAPHCONNECT_GRAPH_CLIENT_SECRET etc.), so they need a default to be bound.
	v.SetDefault("graph.base_url", "https://graph.microsoft.com/v1.0")
	v.SetDefault("graph.auth_mode", AuthModeClientCredentials)
	v.SetDefault("graph.tenant_id", "common")
	v.SetDefault("graph.client_id", "")
	v.SetDefault("graph.client_secret", "")
	v.SetDefault("graph.refresh_token", "")
	v.SetDefault("graph.access_token", "")
	v.SetDefault("graph.sender_address", "")
	v.SetDefault("graph.timeout", "30s")

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.api_key", "")

	v.SetDefault("mail.api_key", "")
}
