package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/charahub/charahub/internal/http"
	"github.com/charahub/charahub/internal/images"
	"github.com/charahub/charahub/internal/mail"
	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/internal/store/drivers/sqlite"
	"github.com/charahub/charahub/pkg/jwtx"
	"github.com/charahub/charahub/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the CharaHub server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	cache    *redis.Client
	sessions *jwtx.Signer

	authService         *service.AuthService
	signupService       *service.SignupService
	verificationService *service.VerificationService
	referralService     *service.ReferralService
	oauthService        *service.OAuthService
	characterService    *service.CharacterService
	socialService       *service.SocialService
	leaderboardService  *service.LeaderboardService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "charahub",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initCache()
	app.sessions = jwtx.NewSigner(cfg.SessionSecret, "charahub", cfg.SessionTTL)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("charahub starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down charahub...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("charahub stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite",
		app.cfg.DatabaseFile,
	)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied")
	return nil
}

func (app *Application) initCache() {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("no redis configured; leaderboard served straight from sql")
		return
	}
	app.cache = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
	})
}

func (app *Application) initServices() {
	app.referralService = &service.ReferralService{Store: app.db}
	app.verificationService = &service.VerificationService{Store: app.db}
	app.authService = &service.AuthService{Store: app.db, Sessions: app.sessions}

	app.signupService = &service.SignupService{
		Store:         app.db,
		Referrals:     app.referralService,
		Verifications: app.verificationService,
		Mailer:        mail.NewAPIMailer(app.cfg.EmailAPIURL, app.cfg.EmailAPIKey, app.cfg.EmailFrom),
		BaseURL:       app.cfg.PublicBaseURL,
	}

	app.oauthService = &service.OAuthService{
		Store:     app.db,
		Sessions:  app.sessions,
		Providers: app.oauthProviders(),
	}

	app.characterService = &service.CharacterService{Store: app.db}
	app.socialService = &service.SocialService{Store: app.db}
	app.leaderboardService = &service.LeaderboardService{
		Store: app.db,
		Redis: app.cache,
		TTL:   service.DefaultLeaderboardTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// oauthProviders builds the provider table from configured credentials.
// Providers without credentials are left unregistered and answer 404.
func (app *Application) oauthProviders() map[string]service.OAuthProvider {
	providers := make(map[string]service.OAuthProvider)

	if app.cfg.GoogleClientID != "" {
		providers["google"] = service.OAuthProvider{
			Name:         "google",
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserInfoURL:  "https://openidconnect.googleapis.com/v1/userinfo",
			ClientID:     app.cfg.GoogleClientID,
			ClientSecret: app.cfg.GoogleClientSecret,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}

	return providers
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.sessions,
		app.cfg.PublicBaseURL,
		BuildVersion,
		app.db,
		app.cache,
		app.logger,
	)

	router.AuthService = app.authService
	router.SignupService = app.signupService
	router.VerificationService = app.verificationService
	router.ReferralService = app.referralService
	router.OAuthService = app.oauthService
	router.CharacterService = app.characterService
	router.SocialService = app.socialService
	router.LeaderboardService = app.leaderboardService
	router.Images = images.NewClient(app.cfg.ImagesBaseURL, app.cfg.ImagesAccountID, app.cfg.ImagesAPIToken)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
