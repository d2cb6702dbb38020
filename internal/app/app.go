package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/examshaala/examshaala-portal/internal/auth"
	"github.com/examshaala/examshaala-portal/internal/cache"
	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/config"
	"github.com/examshaala/examshaala-portal/internal/forms"
	"github.com/examshaala/examshaala-portal/internal/gateway"
	"github.com/examshaala/examshaala-portal/internal/handlers"
	"github.com/examshaala/examshaala-portal/internal/identity/firebase"
	"github.com/examshaala/examshaala-portal/internal/identity/google"
	"github.com/examshaala/examshaala-portal/internal/identity/local"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/metrics"
	"github.com/examshaala/examshaala-portal/internal/profile"
	"github.com/examshaala/examshaala-portal/internal/ratelimit"
	"github.com/examshaala/examshaala-portal/internal/seed"
	"github.com/examshaala/examshaala-portal/internal/session"
	"github.com/examshaala/examshaala-portal/internal/storage"
)

const (
	profileCacheTTL     = 30 * time.Second
	profileCacheEntries = 10000
	limiterIdleTTL      = 10 * time.Minute
	sweepInterval       = time.Minute
)

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Metrics *metrics.Metrics

	Storage  interfaces.StorageManager
	Redis    *redis.Client
	Provider interfaces.IdentityProvider
	Gateway  *gateway.Gateway
	Profiles *profile.Synchronizer
	Forms    *forms.Orchestrator
	Sessions *session.Manager

	// FormLimiter throttles form posts per client IP.
	FormLimiter  *ratelimit.Keyed
	loginLimiter *ratelimit.Keyed

	// HTTP handlers
	PageHandler      *handlers.PageHandler
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
	AuthHandler      *handlers.AuthHandler
	DashboardHandler *handlers.DashboardHandler

	sessionRegistry *session.MemoryStore
	consentStore    *auth.MemoryConsentStore
	stop            chan struct{}
}

// New initializes the application with all dependencies.
func New(ctx context.Context, cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		stop:    make(chan struct{}),
	}

	// Validate environment setting
	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("RUNNING IN DEV MODE: local identity provider allowed, do not use in production")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	if err := a.initStorage(ctx); err != nil {
		return nil, err
	}
	if err := a.initRedis(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initIdentity(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initSessions(); err != nil {
		a.Close()
		return nil, err
	}
	a.initForms()
	a.initHandlers()
	a.startSweepers()

	if cfg.IsDevMode() && cfg.Identity.Provider == "local" {
		go seed.DevUsers(context.WithoutCancel(ctx), a.Provider, a.Profiles, logger)
	}

	logger.Info().Msg("application initialization complete")

	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	mgr, err := storage.NewStorageManager(ctx, a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = mgr

	profiles := cache.New(profileCacheTTL, profileCacheEntries)
	a.Profiles = profile.NewSynchronizer(mgr.ProfileStore(), profiles, a.Metrics, a.Logger)
	return nil
}

// initRedis connects only when a Redis-backed registry is selected.
func (a *App) initRedis(ctx context.Context) error {
	if a.Config.Auth.SessionStore != "redis" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", a.Config.Redis.Addr, err)
	}
	a.Redis = rdb
	a.Logger.Info().Str("addr", a.Config.Redis.Addr).Msg("Redis connected")
	return nil
}

func (a *App) initIdentity(ctx context.Context) error {
	cfg := a.Config
	callbackURL := cfg.OAuth.Google.RedirectURL
	if callbackURL == "" {
		callbackURL = cfg.BaseURL() + "/auth/google/callback"
	}

	switch cfg.Identity.Provider {
	case "local":
		a.Provider = local.NewProvider(a.Storage.AccountStore(), a.Logger)
	default:
		fb := firebase.NewClient(cfg.Identity.Firebase.BaseURL, cfg.Identity.Firebase.APIKey, callbackURL, cfg.Identity.Firebase.GetTimeout())
		a.Provider = fb
	}

	a.loginLimiter = ratelimit.NewKeyed(ratelimit.PerMinute(cfg.RateLimit.LoginPerMinute), cfg.RateLimit.LoginBurst, limiterIdleTTL)
	opts := []gateway.Option{
		gateway.WithLoginLimiter(a.loginLimiter),
		gateway.WithMetrics(a.Metrics),
	}

	if cfg.OAuth.Google.Enabled() {
		flow, err := google.New(ctx, cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, callbackURL)
		if err != nil {
			return fmt.Errorf("failed to initialize google sign-in: %w", err)
		}
		var pending interfaces.ConsentStore
		if a.Redis != nil {
			pending = auth.NewRedisConsentStore(a.Redis)
		} else {
			a.consentStore = auth.NewMemoryConsentStore()
			pending = a.consentStore
		}
		opts = append(opts, gateway.WithConsentFlow(flow, pending))
		a.Logger.Info().Str("redirect_url", callbackURL).Msg("Google sign-in enabled")
	}

	a.Gateway = gateway.New(a.Provider, a.Logger, opts...)
	a.Logger.Info().Str("provider", cfg.Identity.Provider).Msg("Identity provider configured")
	return nil
}

func (a *App) initSessions() error {
	secret := []byte(a.Config.Auth.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		a.Logger.Warn().Msg("auth.jwt_secret not set, sessions will not survive a restart")
	}

	var registry session.Store
	if a.Redis != nil {
		registry = session.NewRedisStore(a.Redis)
	} else {
		a.sessionRegistry = session.NewMemoryStore()
		registry = a.sessionRegistry
	}

	secure := strings.HasPrefix(a.Config.BaseURL(), "https://")
	a.Sessions = session.NewManager(
		session.NewIssuer(secret),
		registry,
		a.Config.Auth.GetSessionTTL(),
		secure,
		session.NewLogObserver(a.Logger, a.Metrics),
	)
	return nil
}

func (a *App) initForms() {
	fc := a.Config.Forms
	a.Forms = forms.NewOrchestrator(a.Profiles, fc.GetAlertTTL(), fc.GetProfileSyncTimeout(), a.Metrics, a.Logger)
	a.FormLimiter = ratelimit.NewKeyed(ratelimit.PerSecond(a.Config.RateLimit.FormsPerSecond), a.Config.RateLimit.FormsBurst, limiterIdleTTL)
}

// authForms configures the auth page's forms.
func (a *App) authForms() handlers.AuthForms {
	fc := a.Config.Forms
	return handlers.AuthForms{
		Login: a.Forms.Form(forms.Config{
			Name:            "login",
			Op:              gateway.OpLogin,
			SuccessMessage:  gateway.LoginSuccessMessage,
			SuccessRedirect: fc.SuccessRedirect,
			RedirectDelay:   fc.GetLoginRedirectDelay(),
			SyncProfile:     true,
		}),
		Register: a.Forms.Form(forms.Config{
			Name:            "register",
			Op:              gateway.OpRegister,
			SuccessMessage:  gateway.RegisterSuccessMessage,
			SuccessRedirect: "/auth?tab=login",
			RedirectDelay:   fc.GetRegisterRedirectDelay(),
			SyncProfile:     true,
		}),
		Federated: a.Forms.Form(forms.Config{
			Name:            "federated",
			Op:              gateway.OpFederated,
			SuccessMessage:  gateway.FederatedSuccessMessage,
			SuccessRedirect: fc.SuccessRedirect,
			RedirectDelay:   fc.GetLoginRedirectDelay(),
			SyncProfile:     true,
		}),
		Reset: a.Forms.Form(forms.Config{
			Name:           "reset",
			Op:             gateway.OpReset,
			SuccessMessage: gateway.ResetSuccessMessage,
		}),
	}
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.PageHandler = handlers.NewPageHandler(a.Logger, a.Config.IsDevMode())
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.AuthHandler = handlers.NewAuthHandler(a.Logger, a.PageHandler, a.Gateway, a.authForms(), a.Sessions)
	a.DashboardHandler = handlers.NewDashboardHandler(a.Logger, a.PageHandler, a.Sessions, a.Profiles)

	if fb, ok := a.Provider.(*firebase.Client); ok {
		a.HealthHandler.AddCheck("identity", func(context.Context) error {
			if state := fb.BreakerState(); state == "open" {
				return fmt.Errorf("identity provider circuit %s", state)
			}
			return nil
		})
	}
	if a.Redis != nil {
		a.HealthHandler.AddCheck("redis", func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		})
	}

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// startSweepers evicts idle limiter buckets and expired in-memory entries.
func (a *App) startSweepers() {
	go a.FormLimiter.Run(sweepInterval, a.stop)
	go a.loginLimiter.Run(sweepInterval, a.stop)
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-a.stop:
				return
			case <-ticker.C:
				if a.sessionRegistry != nil {
					a.sessionRegistry.Cleanup()
				}
				if a.consentStore != nil {
					a.consentStore.Cleanup()
				}
			}
		}
	}()
}

// Close waits for in-flight profile syncs and closes all application resources.
func (a *App) Close() error {
	select {
	case <-a.stop:
		return nil
	default:
		close(a.stop)
	}

	if a.Forms != nil {
		a.Forms.Wait()
	}

	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
