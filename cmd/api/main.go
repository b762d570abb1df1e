// @title        Phone Verification API
// @version      1.0
// @description  Multi-tenant phone-number verification backend: authentication, sessions, RBAC, and number validation.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/veriphone/verify-api/internal/api"
	"github.com/veriphone/verify-api/internal/api/middleware"
	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/rbac"
	"github.com/veriphone/verify-api/internal/core/service"
	"github.com/veriphone/verify-api/internal/infrastructure/config"
	mongodb "github.com/veriphone/verify-api/internal/infrastructure/db/mongo"
	redisdb "github.com/veriphone/verify-api/internal/infrastructure/db/redis"
	"github.com/veriphone/verify-api/internal/infrastructure/mail"
	"github.com/veriphone/verify-api/internal/infrastructure/queue"
	"github.com/veriphone/verify-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Backing stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db)
	roleRepo := mongodb.NewRoleRepository(db)
	phoneRepo := mongodb.NewPhoneValidationRepository(db)
	eventRepo := mongodb.NewSecurityEventRepository(db)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// Seed any missing roles and load the permission snapshot. Seeding is
	// insert-only: permission sets edited at runtime are not reverted here.
	// Startup fails hard either way, without roles nothing can be authorized.
	if err := roleRepo.Seed(ctx, domain.DefaultRoles()); err != nil {
		log.Fatal().Err(err).Msg("role seeding failed")
	}
	catalog := rbac.New()
	if err := catalog.Load(ctx, roleRepo); err != nil {
		log.Fatal().Err(err).Msg("permission catalog load failed")
	}

	// --- Background workers ---
	dispatcher := queue.NewDispatcher(0, eventRepo, log)
	dispatcher.Start(ctx)

	// --- Services ---
	tokens := service.NewTokenService(
		cfg.JWTSecret, cfg.RefreshTokenSecret,
		cfg.JWTExpiresIn, cfg.RefreshTokenExpiresIn,
	)
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BaseURL:  cfg.SMTP.BaseURL,
	}, log)
	authService := service.NewAuthService(userRepo, tokens, mailer, dispatcher, log)
	phoneService := service.NewPhoneService(phoneRepo, log)

	limiter := middleware.NewRateLimiter(
		redisdb.NewCounterStore(rdb),
		cfg.RateLimit.GenericWindow,
		map[middleware.RouteClass]middleware.Quota{
			middleware.ClassLogin:         {Window: cfg.RateLimit.LoginWindow, Max: cfg.RateLimit.LoginMax},
			middleware.ClassSignup:        {Window: cfg.RateLimit.SignupWindow, Max: cfg.RateLimit.SignupMax},
			middleware.ClassPasswordReset: {Window: cfg.RateLimit.PasswordResetWindow, Max: cfg.RateLimit.PasswordResetMax},
		},
		log,
	)

	e := api.NewRouter(api.Deps{
		Log:           log,
		Auth:          authService,
		Tokens:        tokens,
		Phones:        phoneService,
		Roles:         roleRepo,
		Catalog:       catalog,
		Limiter:       limiter,
		Mongo:         db,
		Redis:         rdb,
		RefreshTTL:    cfg.RefreshTokenExpiresIn,
		SecureCookies: cfg.IsProduction(),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
