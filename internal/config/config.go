package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Community CommunityConfig
	Media     MediaConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	BuildVersion   string
	// TrustedProxies lists the CIDRs or addresses whose forwarding headers are believed
	TrustedProxies []string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// JWTConfig holds bearer token verification settings.
// PrivateKeyPath is only needed by tooling that mints tokens.
type JWTConfig struct {
	PublicKeyPath  string
	PrivateKeyPath string
	Issuer         string
	Algorithm      string
}

// CommunityConfig holds the community endpoint settings.
// A zero CacheRefreshInterval disables the periodic city cache reload.
type CommunityConfig struct {
	TokenHash            string
	CacheRefreshInterval time.Duration
}

// MediaConfig holds the image object store settings
type MediaConfig struct {
	MongoURI       string
	MongoDatabase  string
	PublicBaseURL  string
	MaxUploadBytes int64
}

// AuditConfig holds audit log settings
type AuditConfig struct {
	DatabaseURL string
	QueueSize   int
}

// RateLimitPolicy bounds one route group: Requests per window plus Burst
type RateLimitPolicy struct {
	Requests int
	Burst    int
}

// RateLimitConfig holds the per route group limits sharing one window
type RateLimitConfig struct {
	Window    time.Duration
	Public    RateLimitPolicy
	Authed    RateLimitPolicy
	Community RateLimitPolicy
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first; variables already set in the process win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			BuildVersion:   getEnv("BUILD_VERSION", "1.0.2"),
			TrustedProxies: getSliceEnv("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "rentwise"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		JWT: JWTConfig{
			PublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public_key.pem"),
			PrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
			Issuer:         getEnv("JWT_ISSUER", ""),
			Algorithm:      getEnv("JWT_ALGORITHM", "RS256"),
		},
		Community: CommunityConfig{
			TokenHash:            getEnv("COMMUNITY_TOKEN_HASH", ""),
			CacheRefreshInterval: getDurationEnv("CITY_CACHE_REFRESH_INTERVAL", 6*time.Hour),
		},
		Media: MediaConfig{
			MongoURI:       getEnv("MONGO_URI", ""),
			MongoDatabase:  getEnv("MONGO_DATABASE", "rentwise_media"),
			PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 10<<20)),
		},
		Audit: AuditConfig{
			DatabaseURL: getEnv("AUDIT_DATABASE_URL", ""),
			QueueSize:   getIntEnv("AUDIT_QUEUE_SIZE", 256),
		},
		RateLimit: RateLimitConfig{
			Window: getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			Public: RateLimitPolicy{
				Requests: getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
				Burst:    getIntEnv("RATE_LIMIT_PUBLIC_BURST", 20),
			},
			Authed: RateLimitPolicy{
				Requests: getIntEnv("RATE_LIMIT_AUTHED_REQUESTS", 300),
				Burst:    getIntEnv("RATE_LIMIT_AUTHED_BURST", 60),
			},
			Community: RateLimitPolicy{
				Requests: getIntEnv("RATE_LIMIT_COMMUNITY_REQUESTS", 1000),
				Burst:    getIntEnv("RATE_LIMIT_COMMUNITY_BURST", 100),
			},
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// MediaEnabled reports whether an image object store is configured
func (c *Config) MediaEnabled() bool {
	return c.Media.MongoURI != ""
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	switch c.JWT.Algorithm {
	case "RS256", "RS384", "RS512":
	default:
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM must be RS256, RS384 or RS512, got '%s'", c.JWT.Algorithm))
	}

	if c.IsProduction() {
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
		if c.Community.TokenHash == "" {
			errs = append(errs, errors.New("COMMUNITY_TOKEN_HASH is required in production"))
		}
	}
	if c.Community.TokenHash != "" && !strings.HasPrefix(c.Community.TokenHash, "$2") {
		errs = append(errs, errors.New("COMMUNITY_TOKEN_HASH must be a bcrypt hash"))
	}

	if c.MediaEnabled() && c.Media.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required when MONGO_URI is set"))
	}
	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	if c.Community.CacheRefreshInterval < 0 {
		errs = append(errs, errors.New("CITY_CACHE_REFRESH_INTERVAL must not be negative"))
	}
	if c.Audit.QueueSize <= 0 {
		errs = append(errs, errors.New("AUDIT_QUEUE_SIZE must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	for _, g := range []struct {
		env    string
		policy RateLimitPolicy
	}{
		{"PUBLIC", c.RateLimit.Public},
		{"AUTHED", c.RateLimit.Authed},
		{"COMMUNITY", c.RateLimit.Community},
	} {
		if g.policy.Requests <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_%s_REQUESTS must be positive", g.env))
		}
		if g.policy.Burst < 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_%s_BURST must not be negative", g.env))
		}
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a single host prefix.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		if addr, err := netip.ParseAddr(raw); err == nil {
			addr = addr.Unmap()
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES entry %q is not an address or CIDR", raw)
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
