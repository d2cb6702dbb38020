package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4241,
			Host: "localhost",
		},
		Auth: AuthConfig{
			SessionTTL:   "24h",
			SessionStore: "memory",
		},
		Identity: IdentityConfig{
			Provider: "firebase",
			Firebase: FirebaseConfig{
				BaseURL: "https://identitytoolkit.googleapis.com/v1",
				Timeout: "10s",
			},
		},
		Forms: FormsConfig{
			AlertTTL:              "5s",
			SuccessRedirect:       "/dashboard",
			LoginRedirectDelay:    "1500ms",
			RegisterRedirectDelay: "2s",
			ProfileSyncTimeout:    "10s",
		},
		Storage: StorageConfig{
			Backend: "badger",
			Badger: BadgerConfig{
				Path: "./data/examshaala",
			},
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		RateLimit: RateLimitConfig{
			FormsPerSecond: 2,
			FormsBurst:     10,
			LoginPerMinute: 10,
			LoginBurst:     5,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"console", "file"},
		},
	}
}
