package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	defaultAccessTokenTTL  = time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultRevocationTTL   = 5 * time.Minute
)

// Config holds the application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppConfig holds app-specific configuration
type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host           string          `yaml:"host"`
	Port           int             `yaml:"port"`
	Domain         string          `yaml:"domain"`
	ProxyHeader    string          `yaml:"proxy_header"`
	TrustedProxies []string        `yaml:"trusted_proxies"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig holds request throttling configuration
type RateLimitConfig struct {
	Max        int `yaml:"max"`
	Expiration int `yaml:"expiration"` // seconds
}

// AuthConfig holds token issuance configuration
type AuthConfig struct {
	Issuer          string `yaml:"issuer"`
	Audience        string `yaml:"audience"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds the revocation cache configuration.
// An empty host disables the cache.
type RedisConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	RevocationTTL string `yaml:"revocation_ttl"`
}

// LoggingConfig holds logging-specific configuration
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Address returns the server address in the format "host:port"
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (c *Config) validate() error {
	if err := c.Auth.validate(); err != nil {
		return err
	}
	if c.Auth.IssuerOr(c.Server.Domain) == "" {
		return fmt.Errorf("auth.issuer or server.domain is required")
	}
	return c.Server.validate()
}

func (s *ServerConfig) validate() error {
	if s.ProxyHeader != "" && len(s.TrustedProxies) == 0 {
		return fmt.Errorf("server.proxy_header requires server.trusted_proxies")
	}
	return nil
}

func (a *AuthConfig) validate() error {
	for name, raw := range map[string]string{
		"access_token_ttl":  a.AccessTokenTTL,
		"refresh_token_ttl": a.RefreshTokenTTL,
	} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid auth.%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid auth.%s: must be positive", name)
		}
	}
	if a.Audience == "" {
		return fmt.Errorf("auth.audience is required")
	}
	return nil
}

// IssuerOr returns the configured token issuer, falling back to domain
func (a *AuthConfig) IssuerOr(domain string) string {
	if a.Issuer != "" {
		return a.Issuer
	}
	return domain
}

// AccessTTL returns the access token lifetime, one minute when unset
func (a *AuthConfig) AccessTTL() time.Duration {
	return parseDurationOr(a.AccessTokenTTL, defaultAccessTokenTTL)
}

// RefreshTTL returns the refresh token lifetime, seven days when unset
func (a *AuthConfig) RefreshTTL() time.Duration {
	return parseDurationOr(a.RefreshTokenTTL, defaultRefreshTokenTTL)
}

// Enabled reports whether a Redis host is configured
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Address returns the Redis address in the format "host:port"
func (r *RedisConfig) Address() string {
	return net.JoinHostPort(r.Host, fmt.Sprintf("%d", r.Port))
}

// RevocationTTLDuration returns how long revoked session markers are cached
func (r *RedisConfig) RevocationTTLDuration() time.Duration {
	return parseDurationOr(r.RevocationTTL, defaultRevocationTTL)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// quoteDSNValue quotes a DSN value if it contains spaces or special characters.
// Single quotes inside the value are escaped by doubling them.
func quoteDSNValue(value string) string {
	needsQuoting := false
	for _, r := range value {
		if r == ' ' || r == '\'' || r == '\\' || r == '=' {
			needsQuoting = true
			break
		}
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '-' || r == '_' || r == '/' || r == '@' || r == ':') {
			needsQuoting = true
			break
		}
	}

	if !needsQuoting {
		return value
	}

	escaped := ""
	for _, r := range value {
		if r == '\'' {
			escaped += "''"
		} else {
			escaped += string(r)
		}
	}

	return "'" + escaped + "'"
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteDSNValue(d.Host),
		d.Port,
		quoteDSNValue(d.User),
		quoteDSNValue(d.Password),
		quoteDSNValue(d.DBName),
		quoteDSNValue(d.SSLMode),
	)
}

// URL returns the database connection URL in postgres:// format for golang-migrate
func (d *DatabaseConfig) URL() string {
	userInfo := url.UserPassword(d.User, d.Password)

	// JoinHostPort wraps IPv6 hosts in brackets
	host := net.JoinHostPort(d.Host, fmt.Sprintf("%d", d.Port))

	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     host,
		Path:     "/" + d.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s&search_path=public", url.QueryEscape(d.SSLMode)),
	}

	return u.String()
}
