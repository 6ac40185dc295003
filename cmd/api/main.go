package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/clinic-agenda/internal/config"
	"github.com/harentsoaR/clinic-agenda/internal/handlers"
	"github.com/harentsoaR/clinic-agenda/internal/middleware"
	"github.com/harentsoaR/clinic-agenda/internal/services"
	"github.com/harentsoaR/clinic-agenda/internal/store"
	"github.com/harentsoaR/clinic-agenda/internal/utils"
)

func main() {
	log := logrus.New()
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, relying on environment variables.")
	}

	cfg := config.NewConfig()
	setupLogger(log, cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.WithError(err).Warn("sentry init failed, error reporting disabled")
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	repo, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("failed to open store")
	}
	log.WithField("driver", cfg.StoreDriver).Info("store ready")

	seedCtx, cancelSeed := context.WithTimeout(ctx, 30*time.Second)
	err = store.Seed(seedCtx, repo, store.SeedOptions{
		OwnerName:     cfg.OwnerName,
		OwnerEmail:    cfg.OwnerEmail,
		OwnerPassword: cfg.OwnerPassword,
		Demo:          cfg.SeedDemo,
		DemoPassword:  cfg.SeedDemoPass,
		Day:           time.Now(),
	}, log)
	cancelSeed()
	if err != nil {
		log.WithError(err).Fatal("seed failed")
	}

	// --- Services & handlers ---
	notifier := services.NewNotificationService(cfg.TextbeltAPIKey, cfg.TextbeltURL, log)
	if !notifier.Enabled() {
		log.Info("TEXTBELT_API_KEY not set, SMS notifications disabled")
	}
	jwt := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	h := handlers.NewHandler(repo, notifier, jwt, log)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst)
	go loginLimiter.Run(ctx)

	// --- Gin router ---
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	handlers.SetupRoutes(r, h, loginLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	if err := notifier.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("pending notifications dropped")
	}
	if err := repo.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("store close")
	}
}

func setupLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case "mongo":
		s, err := store.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := store.NewPostgresStore(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
