package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/config"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/handler"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/keycloak"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/partialexport"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/partialimport"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/querystore"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/section"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/server"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/vault"
)

const (
	latestQuerySubjects = 1024
	latestQueryTTL      = 8 * time.Hour
)

func main() {
	// Initialize structured JSON logger.
	logCfg := zap.NewProductionConfig()
	logCfg.EncoderConfig.TimeKey = "timestamp"
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logCfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := logCfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting realm-console")

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("keycloak_url", cfg.KeycloakURL),
		zap.String("keycloak_realm", cfg.KeycloakRealm),
		zap.String("account_realm", cfg.AccountRealm),
		zap.String("vault_addr", cfg.VaultAddr),
		zap.String("export_dir", cfg.ExportDir),
		zap.Int("sections", len(cfg.Sections)),
		zap.Strings("admin_groups", cfg.AdminGroups),
	)

	// The Keycloak client secret comes from Vault unless set directly.
	var health handler.HealthChecker
	if cfg.VaultAddr != "" {
		vc, err := vault.NewClient(cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize vault client", zap.Error(err))
		}
		health = vc
		logger.Info("vault client initialized")

		if cfg.KeycloakClientSecret == "" {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			cfg.KeycloakClientSecret, err = vc.KeycloakClientSecret(ctx)
			cancel()
			if err != nil {
				logger.Fatal("failed to read keycloak client secret", zap.Error(err))
			}
		}
	}

	// Initialize Keycloak client.
	kc, err := keycloak.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize keycloak client", zap.Error(err))
	}
	logger.Info("keycloak client initialized")

	var persister partialexport.Persister = &partialexport.RemotePersister{Backend: kc}
	if cfg.ExportDir != "" {
		persister = &partialexport.DirPersister{
			Dir:     cfg.ExportDir,
			Backend: kc,
			Logger:  logger.Named("export"),
		}
	}

	// Create handlers.
	h := handler.NewHandler(
		cfg,
		kc,
		health,
		partialimport.NewStore(cfg.ImportMaxSessions, cfg.ImportSessionTTL),
		querystore.New(latestQuerySubjects, latestQueryTTL),
		section.NewRegistry(cfg.Sections),
		persister,
		logger,
	)

	// Create and start the server.
	srv := server.New(cfg, h, kc, logger)

	// Graceful shutdown handling.
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal.
	sig := <-shutdownCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Give outstanding requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("realm-console stopped")
}
