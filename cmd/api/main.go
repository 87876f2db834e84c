// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api runs the SignOn authentication and authorization server.
package main

import (
	stdctx "context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/signon/internal/api"
	"github.com/taibuivan/signon/internal/core/configuration"
	"github.com/taibuivan/signon/internal/core/group"
	"github.com/taibuivan/signon/internal/platform/config"
	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/mail"
	"github.com/taibuivan/signon/internal/platform/metrics"
	"github.com/taibuivan/signon/internal/platform/migration"
	"github.com/taibuivan/signon/internal/platform/oauth"
	"github.com/taibuivan/signon/internal/platform/postgres"
	"github.com/taibuivan/signon/internal/platform/redis"
	"github.com/taibuivan/signon/internal/platform/sec"
	"github.com/taibuivan/signon/internal/users/auth"
	"github.com/taibuivan/signon/internal/users/link"
	"github.com/taibuivan/signon/internal/users/session"
	"github.com/taibuivan/signon/internal/users/user"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("service", constants.AppName),
	)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx := stdctx.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Infrastructure.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		return err
	}

	// Store-held configuration: loaded once, rotated by restart.
	snapshot, err := configuration.LoadSnapshot(ctx, configuration.NewPostgresRepository(pool))
	if err != nil {
		return err
	}

	cookieSigner, err := sec.NewCookieSigner(snapshot.CookieSignatureKeys)
	if err != nil {
		return err
	}

	tokenIssuer, err := sec.NewTokenIssuer(snapshot.PrivateKey, constants.AppName, constants.TokenTTL)
	if err != nil {
		return err
	}

	// Domain wiring.
	groupService := group.NewService(group.NewPostgresRepository(pool), logger)
	userRepository := user.NewPostgresRepository(pool)
	linkRepository := link.NewPostgresRepository(pool)
	sessionManager := session.NewManager(
		session.NewCachedRepository(session.NewPostgresRepository(pool), redisClient, logger),
	)

	mailService := mail.NewService(
		mail.NewPostgresTemplateRepository(pool),
		mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom),
		logger,
	)

	googleClient := oauth.NewGoogleClient(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.APIURL+"/api/google-sign-in",
	)

	authService := auth.NewService(
		userRepository,
		linkRepository,
		sessionManager,
		groupService,
		mailService,
		googleClient,
		auth.NewStateStore(redisClient),
		tokenIssuer,
		cfg.APIURL,
		snapshot.PublicKey,
		cfg.SignInDelay,
		logger,
	)

	metrics.MustRegister()

	server := api.NewServer(api.Options{
		Port:           cfg.ServerPort,
		AllowedOrigins: snapshot.AllowedOrigins,
		IsDevelopment:  cfg.IsDevelopment(),
		AuthHandler:    auth.NewHandler(authService, cookieSigner),
		Pool:           pool,
		Redis:          redisClient,
		Logger:         logger,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		logger.Info("shutdown_signal_received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := stdctx.WithTimeout(ctx, constants.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	logger.Info("server_stopped")
	return nil
}
