// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu-platform-backend/internal/config"
	"edu-platform-backend/internal/infra/api"
	pg "edu-platform-backend/internal/infra/db/postgres"
	"edu-platform-backend/internal/infra/logging"
	"edu-platform-backend/internal/infra/metrics"
	wfp "edu-platform-backend/internal/infra/payment"
	red "edu-platform-backend/internal/infra/redis"
	"edu-platform-backend/internal/infra/sched"
	"edu-platform-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	pkgRepo := pg.NewPackageRepoCacheDecorator(pg.NewPackageRepo(pool), redisClient)
	notifRepo := pg.NewNotificationRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment provider ----
	wfpCfg := cfg.Provider.WayForPay
	gateway := wfp.NewWayForPayGateway(
		wfpCfg.MerchantAccount,
		wfpCfg.MerchantDomain,
		wfpCfg.Secret,
		wfpCfg.ActionURL,
		wfpCfg.ReturnURL,
		wfpCfg.ServiceURL,
	)
	if !gateway.Configured() {
		logger.Warn().Msg("wayforpay merchant credentials missing; checkout will fail until configured")
	}

	loc, err := time.LoadLocation(wfpCfg.Timezone)
	if err != nil {
		log.Fatalf("provider timezone: %v", err)
	}

	// ---- Use cases ----
	notifUC := usecase.NewNotificationUseCase(notifRepo, logger)
	entitlementUC := usecase.NewEntitlementUseCase(userRepo, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, pkgRepo, gateway, entitlementUC, notifUC, txManager, loc, logger)

	// ---- Workers ----
	expiryWorker := sched.NewExpiryWorker(cfg.Workers.ExpiryCheckInterval, cfg.Workers.ExpiryWarnWithin, userRepo, notifUC, logger)
	go func() {
		if err := expiryWorker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("expiry worker stopped")
		}
	}()
	sweeper := sched.NewPaymentSweeper(payRepo, cfg.Workers.PaymentSweepInterval, cfg.Workers.PaymentStaleAfter, logger)
	go func() {
		if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("payment sweeper stopped")
		}
	}()

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TTL)
	server := api.NewServer(paymentUC, auth, rateLimiter, cfg.RateLimit.CheckoutPerMinute, logger)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
