package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/config"
	"github.com/simp-lee/tourbase/internal/email"
	"github.com/simp-lee/tourbase/internal/middleware"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/module/booking"
	"github.com/simp-lee/tourbase/internal/module/review"
	"github.com/simp-lee/tourbase/internal/module/tour"
	"github.com/simp-lee/tourbase/internal/module/user"
	"github.com/simp-lee/tourbase/internal/payment"
	"github.com/simp-lee/tourbase/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	client *mongo.Client
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the document database, the mail and payment
// collaborators, domain repositories, handlers, middleware, template
// rendering, and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Setup the document database.
	db, client, err := config.SetupMongo(&cfg.Mongo, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup mongo: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := config.CloseMongo(client); err != nil {
			slog.Error("mongo close error", slog.Any("error", err))
		}
	}()

	// 3. Determine filesystem mode: disk in debug for hot reload, embedded
	// otherwise. Email templates come from the same tree.
	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	// 4. Outbound collaborators: mail and checkout.
	mailer, err := buildMailer(cfg, log.Logger, fsys)
	if err != nil {
		return nil, fmt.Errorf("setup mailer: %w", err)
	}
	checkout, err := buildCheckout(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup payment: %w", err)
	}

	// 5. Manual dependency injection: repository → service → handler → module.
	userRepo := user.NewRepository(db)
	tourRepo := tour.NewRepository(db)
	reviewRepo := review.NewRepository(db)
	bookingRepo := booking.NewRepository(db)

	guard := auth.NewGuard(userRepo, cfg.Auth.JWTSecret, cfg.Auth.CookieName)
	authSvc := auth.NewService(userRepo, mailer, log.Logger, cfg.Auth.JWTSecret, cfg.TokenExpiryDuration(), cfg.Server.BaseURL)
	authHandler := auth.NewHandler(authSvc, guard, cfg.Auth.CookieName, cfg.CookieExpiryDuration(), cfg.Server.Mode == gin.ReleaseMode)

	reviewModule := review.NewModule(db, reviewRepo, tourRepo, guard)
	tourModule := tour.NewModule(db, tourRepo, reviewRepo, guard, reviewModule.RegisterNested)
	modules := []Module{
		auth.NewModule(authHandler, guard),
		user.NewModule(db, userRepo, guard),
		tourModule,
		reviewModule,
		booking.NewModule(db, bookingRepo, tourRepo, checkout, guard, cfg.Server.BaseURL),
	}

	// 6. Create Gin engine with custom middleware (not gin.Default()).
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	corsConfig := resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS.AllowOrigins)

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger, "/static/", "/health"),
		middleware.CORSWithConfig(corsConfig),
	)
	if cfg.Server.RateLimit.Enabled {
		engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RPS:   cfg.Server.RateLimit.RPS,
			Burst: cfg.Server.RateLimit.Burst,
		}))
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 7. Register all routes with the soft guard on pages so every rendered
	// page knows whether a user is logged in.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules: modules,
		Client:  client,
		Guard:   guard,
		Mode:    cfg.Server.Mode,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	// 8. Unique indexes back the duplicate-key handling; create them up
	// front so a first write never races index creation.
	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ensureIndexes(indexCtx, db, tourModule, reviewModule); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	success = true
	return &App{
		engine: engine,
		client: client,
		logger: log,
		cfg:    cfg,
	}, nil
}

// buildMailer wires the configured email provider behind the template
// sender. With email disabled, sends are logged and dropped.
func buildMailer(cfg *config.Config, log *slog.Logger, fsys fs.FS) (*email.Sender, error) {
	var (
		provider email.Provider
		err      error
	)
	switch {
	case !cfg.Email.Enabled:
		provider = email.LogProvider{Logger: log}
	case cfg.Email.Provider == "sendgrid":
		provider, err = email.NewSendGridProvider(email.SendGridConfig{
			APIKey:  cfg.Email.SendGrid.APIKey,
			BaseURL: cfg.Email.SendGrid.BaseURL,
		})
	default:
		provider, err = email.NewSMTPProvider(email.SMTPConfig{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Username: cfg.Email.SMTP.Username,
			Password: cfg.Email.SMTP.Password,
		})
	}
	if err != nil {
		return nil, err
	}
	return email.NewSender(provider, cfg.Email.From, fsys)
}

// buildCheckout wires the payment gateway, or its disabled stand-in.
func buildCheckout(cfg *config.Config) (payment.CheckoutProvider, error) {
	if !cfg.Payment.Enabled {
		return payment.DisabledProvider{}, nil
	}
	return payment.NewStripeProvider(payment.StripeConfig{
		SecretKey: cfg.Payment.StripeSecretKey,
		Currency:  cfg.Payment.Currency,
	})
}

// ensureIndexes creates the unique indexes of every collection that declares
// them.
func ensureIndexes(ctx context.Context, db *mongo.Database, tourModule *tour.TourModule, reviewModule *review.ReviewModule) error {
	if err := user.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if err := tourModule.Indexes().EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("tour indexes: %w", err)
	}
	if err := reviewModule.Indexes().EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("review indexes: %w", err)
	}
	return nil
}

func resolveCORSConfig(mode string, configuredAllowOrigins []string) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()

	if len(configuredAllowOrigins) > 0 {
		corsConfig.AllowOrigins = configuredAllowOrigins
		return corsConfig
	}

	if mode == gin.ReleaseMode {
		corsConfig.AllowOrigins = []string{}
	}

	return corsConfig
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout and closes the
// database connection.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		// Graceful shutdown with 5-second deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.client != nil {
		if err := config.CloseMongo(a.client); err != nil {
			a.logger.Error("mongo close error", slog.Any("error", err))
		} else {
			a.logger.Info("database connection closed")
		}
	}

	a.logger.Info("server stopped")
	if err := a.logger.Close(); err != nil {
		slog.Error("logger close error", slog.Any("error", err))
	}

	return runErr
}
