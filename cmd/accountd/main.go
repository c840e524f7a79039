package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-account/pkg/account"
	accountapi "github.com/tendant/simple-account/pkg/account/api"
	"github.com/tendant/simple-account/pkg/config"
	"github.com/tendant/simple-account/pkg/notice"
	"github.com/tendant/simple-account/pkg/sessions"
	"github.com/tendant/simple-account/pkg/thumbnail"
)

func main() {
	cfg := config.AppConfig{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var pool *pgxpool.Pool
	if cfg.Database.PersistenceType == "postgres" || cfg.Database.PersistenceType == "postgresql" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			slog.Error("Failed to create database pool", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
	}

	userRepo, err := account.NewUserRepository(cfg.Database.PersistenceType, account.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed to create user repository", "err", err)
		os.Exit(1)
	}

	sessionRepo, err := sessions.NewSessionRepository(cfg.Database.PersistenceType, sessions.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed to create session repository", "err", err)
		os.Exit(1)
	}

	notificationManager, err := notice.NewNotificationManager(cfg.Email.ToSMTPConfig())
	if err != nil {
		slog.Error("Failed to create notification manager", "err", err)
		os.Exit(1)
	}

	accountService, err := account.NewAccountService(
		userRepo,
		notificationManager,
		cfg.Account.BaseURL,
		cfg.Account.SecretKey,
		account.WithTokenMaxAgeDays(cfg.Account.TokenMaxAgeDays),
	)
	if err != nil {
		slog.Error("Failed to create account service", "err", err)
		os.Exit(1)
	}

	sessionTTL, err := time.ParseDuration(cfg.Session.TTL)
	if err != nil {
		slog.Error("Invalid SESSION_TTL", "value", cfg.Session.TTL, "err", err)
		os.Exit(1)
	}
	sessionService := sessions.NewService(sessionRepo, sessions.WithTTL(sessionTTL))
	cookies := sessions.NewCookieSetter(true, cfg.Session.SecureCookie)

	storage, err := thumbnail.NewStorage(ctx, cfg.Thumbnail.StorageType, thumbnail.StorageConfig{
		PhotoDir: cfg.Thumbnail.PhotoDir,
		Bucket:   cfg.Thumbnail.S3Bucket,
		Prefix:   cfg.Thumbnail.S3Prefix,
	})
	if err != nil {
		slog.Error("Failed to create image storage", "err", err)
		os.Exit(1)
	}

	accountHandle := accountapi.NewHandle(accountService, sessionService, cookies,
		accountapi.WithRegistrationEnabled(cfg.Account.RegistrationEnabled))
	thumbnailHandle := thumbnail.NewHandle(thumbnail.NewService(storage))

	myApp := app.Default()
	Routes(myApp.R, accountHandle, thumbnailHandle, sessionService, cookies)
	myApp.Run()
}

// Routes mounts the application routes. Everything shares the session
// middleware; the thumbnail endpoint does not need it but is harmless under
// it.
func Routes(r *chi.Mux, accountHandle *accountapi.Handle, thumbnailHandle *thumbnail.Handle, sessionService *sessions.Service, cookies sessions.CookieSetter) {
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware(sessionService, cookies))
		accountHandle.RegisterRoutes(r)
		thumbnailHandle.RegisterRoutes(r)
	})
}
