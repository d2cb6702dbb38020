package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Auth        AuthConfig      `toml:"auth"`
	Identity    IdentityConfig  `toml:"identity"`
	OAuth       OAuthConfig     `toml:"oauth"`
	Forms       FormsConfig     `toml:"forms"`
	Storage     StorageConfig   `toml:"storage"`
	Redis       RedisConfig     `toml:"redis"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
	// PublicURL is the externally visible base URL, used for OAuth redirects.
	PublicURL string `toml:"public_url"`
}

// AuthConfig contains session cookie settings.
type AuthConfig struct {
	JWTSecret  string `toml:"jwt_secret"`
	SessionTTL string `toml:"session_ttl"`
	// SessionStore is "memory" or "redis".
	SessionStore string `toml:"session_store"`
}

// GetSessionTTL parses the session lifetime, defaulting to 24h.
func (c *AuthConfig) GetSessionTTL() time.Duration {
	return parseDuration(c.SessionTTL, 24*time.Hour)
}

// IdentityConfig selects and configures the identity provider.
type IdentityConfig struct {
	// Provider is "firebase" or "local".
	Provider string         `toml:"provider"`
	Firebase FirebaseConfig `toml:"firebase"`
}

// FirebaseConfig contains Identity Toolkit REST settings.
type FirebaseConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the request timeout.
func (c *FirebaseConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// OAuthConfig contains federated sign-in providers.
type OAuthConfig struct {
	Google GoogleConfig `toml:"google"`
}

// GoogleConfig contains Google OIDC client settings.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// Enabled reports whether Google sign-in is configured.
func (c *GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// FormsConfig contains per-form UI timings.
type FormsConfig struct {
	AlertTTL              string `toml:"alert_ttl"`
	SuccessRedirect       string `toml:"success_redirect"`
	LoginRedirectDelay    string `toml:"login_redirect_delay"`
	RegisterRedirectDelay string `toml:"register_redirect_delay"`
	ProfileSyncTimeout    string `toml:"profile_sync_timeout"`
}

// GetAlertTTL returns how long alerts stay visible.
func (c *FormsConfig) GetAlertTTL() time.Duration {
	return parseDuration(c.AlertTTL, 5*time.Second)
}

// GetLoginRedirectDelay returns the post-login redirect delay.
func (c *FormsConfig) GetLoginRedirectDelay() time.Duration {
	return parseDuration(c.LoginRedirectDelay, 1500*time.Millisecond)
}

// GetRegisterRedirectDelay returns the post-registration redirect delay.
func (c *FormsConfig) GetRegisterRedirectDelay() time.Duration {
	return parseDuration(c.RegisterRedirectDelay, 2*time.Second)
}

// GetProfileSyncTimeout bounds a single background profile sync.
func (c *FormsConfig) GetProfileSyncTimeout() time.Duration {
	return parseDuration(c.ProfileSyncTimeout, 10*time.Second)
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	// Backend is "badger" or "postgres".
	Backend  string         `toml:"backend"`
	Badger   BadgerConfig   `toml:"badger"`
	Postgres PostgresConfig `toml:"postgres"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// PostgresConfig contains PostgreSQL settings.
type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	MaxConns int32  `toml:"max_conns"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// RateLimitConfig contains request throttling settings.
type RateLimitConfig struct {
	// FormsPerSecond and FormsBurst throttle form POSTs per client IP.
	FormsPerSecond float64 `toml:"forms_per_second"`
	FormsBurst     int     `toml:"forms_burst"`
	// LoginPerMinute and LoginBurst throttle login attempts per email.
	LoginPerMinute float64 `toml:"login_per_minute"`
	LoginBurst     int     `toml:"login_burst"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// IsDevMode reports whether the portal runs in development mode.
func (c *Config) IsDevMode() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "dev"
}

// BaseURL returns the public base URL of the portal.
func (c *Config) BaseURL() string {
	if c.Server.PublicURL != "" {
		return strings.TrimRight(c.Server.PublicURL, "/")
	}
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// Validate returns a list of mandatory-field problems. Empty means valid.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be 1-65535 (got %d)", c.Server.Port))
	}

	switch c.Identity.Provider {
	case "firebase":
		if c.Identity.Firebase.APIKey == "" {
			issues = append(issues, "identity.firebase.api_key is required when identity.provider = \"firebase\"")
		}
	case "local":
		if !c.IsDevMode() {
			issues = append(issues, "identity.provider = \"local\" is only allowed when environment = \"dev\"")
		}
	default:
		issues = append(issues, fmt.Sprintf("identity.provider must be \"firebase\" or \"local\" (got %q)", c.Identity.Provider))
	}

	switch c.Storage.Backend {
	case "badger":
		if c.Storage.Badger.Path == "" {
			issues = append(issues, "storage.badger.path is required")
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			issues = append(issues, "storage.postgres.dsn is required when storage.backend = \"postgres\"")
		}
	default:
		issues = append(issues, fmt.Sprintf("storage.backend must be \"badger\" or \"postgres\" (got %q)", c.Storage.Backend))
	}

	switch c.Auth.SessionStore {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			issues = append(issues, "redis.addr is required when auth.session_store = \"redis\"")
		}
	default:
		issues = append(issues, fmt.Sprintf("auth.session_store must be \"memory\" or \"redis\" (got %q)", c.Auth.SessionStore))
	}

	if !c.IsDevMode() && c.Auth.JWTSecret == "" {
		issues = append(issues, "auth.jwt_secret is required outside dev mode")
	}

	return issues
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies EXAMSHAALA_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("EXAMSHAALA_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("EXAMSHAALA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("EXAMSHAALA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if publicURL := os.Getenv("EXAMSHAALA_PUBLIC_URL"); publicURL != "" {
		config.Server.PublicURL = publicURL
	}
	if secret := os.Getenv("EXAMSHAALA_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if provider := os.Getenv("EXAMSHAALA_IDENTITY_PROVIDER"); provider != "" {
		config.Identity.Provider = provider
	}
	if apiKey := os.Getenv("EXAMSHAALA_FIREBASE_API_KEY"); apiKey != "" {
		config.Identity.Firebase.APIKey = apiKey
	}
	if id := os.Getenv("EXAMSHAALA_GOOGLE_CLIENT_ID"); id != "" {
		config.OAuth.Google.ClientID = id
	}
	if secret := os.Getenv("EXAMSHAALA_GOOGLE_CLIENT_SECRET"); secret != "" {
		config.OAuth.Google.ClientSecret = secret
	}
	if backend := os.Getenv("EXAMSHAALA_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}
	if badgerPath := os.Getenv("EXAMSHAALA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if dsn := os.Getenv("EXAMSHAALA_POSTGRES_DSN"); dsn != "" {
		config.Storage.Postgres.DSN = dsn
	}
	if addr := os.Getenv("EXAMSHAALA_REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if level := os.Getenv("EXAMSHAALA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("EXAMSHAALA_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
