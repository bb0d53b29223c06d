package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/terraconstructs/authgate/internal/auth"
)

// EnvPrefix is prepended to every environment variable (AUTHGATE_DATABASE_URL, AUTHGATE_JWT_SECRET, ...).
const EnvPrefix = "AUTHGATE"

// Session store kinds.
const (
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
)

var sessionStores = []string{SessionStoreDatabase, SessionStoreRedis, SessionStoreMemory}

// Config holds the application configuration
type Config struct {
	// Database connection string (sqlite://path or postgres://...)
	DatabaseURL string `mapstructure:"database_url"`

	// Server bind address (host:port)
	ServerAddr string `mapstructure:"server_addr"`

	// Maximum database connection pool size
	MaxDBConnections int `mapstructure:"max_db_connections"`

	// Enable debug logging
	Debug bool `mapstructure:"debug"`

	JWT     JWTConfig     `mapstructure:"jwt"`
	Session SessionConfig `mapstructure:"session"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

// JWTConfig configures the bearer-token protocol.
type JWTConfig struct {
	// Header carrying the token, e.g. "Authorization"
	Header string `mapstructure:"header"`
	// Prefix stripped from the header value, e.g. "Bearer "
	Prefix string `mapstructure:"prefix"`
	// Secret is the HS256 signing key. At least 32 bytes.
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	// Issuer is optional; when set it is stamped into and required on every token.
	Issuer string `mapstructure:"issuer"`
}

// SessionConfig configures the session protocol.
type SessionConfig struct {
	// Store selects the session backend: database, redis or memory
	Store        string        `mapstructure:"store"`
	TTL          time.Duration `mapstructure:"ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	// RedisURL is required when Store is redis (redis://host:6379/0)
	RedisURL string `mapstructure:"redis_url"`
}

// CORSConfig configures cross-origin access for browser clients.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// setDefaults registers every key so AutomaticEnv can populate nested fields on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "sqlite://authgate.db")
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("max_db_connections", 25)
	v.SetDefault("debug", false)

	v.SetDefault("jwt.header", "Authorization")
	v.SetDefault("jwt.prefix", "Bearer ")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("jwt.issuer", "")

	v.SetDefault("session.store", SessionStoreDatabase)
	v.SetDefault("session.ttl", auth.DefaultSessionTTL)
	v.SetDefault("session.cookie_name", auth.DefaultSessionCookieName)
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.redis_url", "")

	v.SetDefault("cors.allowed_origins", []string{})
}

// Load reads configuration from the global viper instance: config file (if one
// was read by the caller), AUTHGATE_ environment variables and defaults, in
// increasing order of precedence from defaults to env.
func Load() (*Config, error) {
	v := viper.GetViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and cross-field rules.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.ServerAddr == "" {
		return fmt.Errorf("server_addr is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required (set %s_JWT_SECRET)", EnvPrefix)
	}
	if len(c.JWT.Secret) < auth.MinSigningKeyLength {
		return fmt.Errorf("jwt.secret must be at least %d bytes", auth.MinSigningKeyLength)
	}
	if c.JWT.Header == "" {
		return fmt.Errorf("jwt.header is required")
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("jwt.expiration must be positive, got %s", c.JWT.Expiration)
	}

	if !slices.Contains(sessionStores, c.Session.Store) {
		return fmt.Errorf("session.store must be one of %s, got %q", strings.Join(sessionStores, ", "), c.Session.Store)
	}
	if c.Session.Store == SessionStoreRedis && c.Session.RedisURL == "" {
		return fmt.Errorf("session.redis_url is required when session.store is redis")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}

	return nil
}
