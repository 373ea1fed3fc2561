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

	"github.com/joho/godotenv"

	"github.com/pyankovzhe/market-backend/api/routes"
	authsvc "github.com/pyankovzhe/market-backend/internal/auth"
	"github.com/pyankovzhe/market-backend/internal/basket"
	"github.com/pyankovzhe/market-backend/internal/catalog"
	"github.com/pyankovzhe/market-backend/internal/contacts"
	"github.com/pyankovzhe/market-backend/internal/partner"
	"github.com/pyankovzhe/market-backend/internal/users"
	"github.com/pyankovzhe/market-backend/pkg/auth/session"
	"github.com/pyankovzhe/market-backend/pkg/config"
	"github.com/pyankovzhe/market-backend/pkg/db"
	"github.com/pyankovzhe/market-backend/pkg/logger"
	"github.com/pyankovzhe/market-backend/pkg/mailer"
	"github.com/pyankovzhe/market-backend/pkg/migrate"
	"github.com/pyankovzhe/market-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "market-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("auto migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting redis: %w", err)
	}
	defer redisClient.Close()

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("building session manager: %w", err)
	}

	var mail mailer.Sender
	if cfg.Mail.Host != "" {
		smtp, err := mailer.NewSMTPSender(cfg.Mail)
		if err != nil {
			return fmt.Errorf("building smtp sender: %w", err)
		}
		mail = smtp
	} else {
		mail = mailer.NewLogSender(logg)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	contactRepo := contacts.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	partnerRepo := partner.NewRepository(gormDB)
	orderRepo := basket.NewRepository(gormDB)

	authService, err := authsvc.NewService(userRepo, dbClient, sessions, mail, cfg.JWT, cfg.Password, logg)
	if err != nil {
		return fmt.Errorf("building auth service: %w", err)
	}
	contactService, err := contacts.NewService(contactRepo)
	if err != nil {
		return fmt.Errorf("building contact service: %w", err)
	}
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		return fmt.Errorf("building catalog service: %w", err)
	}
	partnerService, err := partner.NewService(partnerRepo, dbClient, partner.NewHTTPFetcher(cfg.Sync), logg)
	if err != nil {
		return fmt.Errorf("building partner service: %w", err)
	}
	basketService, err := basket.NewService(orderRepo, dbClient, catalogRepo, contactRepo, userRepo, mail, logg)
	if err != nil {
		return fmt.Errorf("building basket service: %w", err)
	}

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessions,
		Auth:     authService,
		Contacts: contactService,
		Catalog:  catalogService,
		Partner:  partnerService,
		Basket:   basketService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
