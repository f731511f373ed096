package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"moneytracker/internal/auth"
	"moneytracker/internal/cli"
	apphttp "moneytracker/internal/http"
	"moneytracker/internal/ledger"
	"moneytracker/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	sessions := auth.NewSessions(auth.NewLocalIdentity(res.Store, tokens))
	ledgers := ledger.NewLedgers(res.Entries, cfg.LedgerCacheSize, cfg.LedgerCacheTTL)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Sessions:           sessions,
		Ledgers:            ledgers,
		Store:              res.Store,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheSweepInterval: time.Minute,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		exitAfterCleanup(logger, res.Cleanup)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting moneytracker server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		exitAfterCleanup(logger, res.Cleanup)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// exitAfterCleanup closes the store before a failed start exits the process.
func exitAfterCleanup(logger *log.Logger, cleanup func() error) {
	if err := cleanup(); err != nil {
		logger.Error("Backend cleanup error", log.FieldError, err)
	}
	os.Exit(1)
}
