// Package main is the entry point for the rasoi API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rasoi/internal/core/config"
	"rasoi/internal/domain/alerts"
	"rasoi/internal/domain/bom"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/domain/catalogs/product"
	"rasoi/internal/domain/consumption"
	"rasoi/internal/domain/costing"
	"rasoi/internal/domain/registers/ledger"
	v1 "rasoi/internal/infrastructure/http/v1"
	"rasoi/internal/infrastructure/storage/postgres"
	"rasoi/internal/infrastructure/storage/postgres/catalog_repo"
	"rasoi/internal/infrastructure/storage/postgres/register_repo"
	"rasoi/pkg/logger"
	"rasoi/pkg/numerator"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting rasoi server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig()
	poolCfg.DSN = cfg.DatabaseURL
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txOpts := postgres.DefaultTxOptions()
	txOpts.StatementTimeout = cfg.StatementTimeout
	txOpts.LockTimeout = cfg.LockTimeout
	txManager := postgres.NewTxManagerWithOptions(pool, txOpts)

	// --- Repositories ---
	ingredientRepo := catalog_repo.NewIngredientRepo(txManager)
	preparedItemRepo := catalog_repo.NewPreparedItemRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	ledgerRepo := register_repo.NewLedgerRepo(txManager)

	// --- Shared infrastructure ---
	codes := numerator.New(pool.Unwrap())

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Domain services ---
	costingEngine := costing.NewEngine(ingredientRepo, ledgerRepo, costing.Policy{
		StrictCostIntegrity:  cfg.StrictCostIntegrity,
		AllowFallbackPricing: cfg.AllowFallbackPricing,
	})
	bomService := bom.NewService(preparedItemRepo, productRepo, ingredientRepo, ledgerRepo, costingEngine)

	ingredientService := ingredient.NewService(ingredientRepo, txManager, codes)
	preparedItemService := prepareditem.NewService(preparedItemRepo, ingredientRepo, txManager, codes)
	productService := product.NewService(productRepo, preparedItemRepo, txManager, codes)

	// The cascade and audit are wired after construction: the bom service
	// needs the catalog repos first.
	ingredientService.SetCascader(bomService)
	ingredientService.SetAuditLogger(auditService)
	preparedItemService.SetCascader(bomService)
	preparedItemService.SetAuditLogger(auditService)
	productService.SetCascader(bomService)
	productService.SetAuditLogger(auditService)

	ledgerService := ledger.NewService(ledgerRepo, ingredientRepo, txManager)
	consumptionService := consumption.NewService(productRepo, preparedItemRepo, ingredientRepo, ledgerRepo, txManager)

	alertService, err := alerts.NewService(ingredientRepo, ledgerRepo, alerts.DefaultRules())
	if err != nil {
		log.Fatalw("failed to compile alert rules", "error", err)
	}

	log.Infow("services initialized",
		"strict_cost_integrity", cfg.StrictCostIntegrity,
		"allow_fallback_pricing", cfg.AllowFallbackPricing,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:          pool,
		Logger:        log,
		Ingredients:   ingredientService,
		PreparedItems: preparedItemService,
		Products:      productService,
		Stock:         ledgerService,
		Costing:       costingEngine,
		BOM:           bomService,
		Consumption:   consumptionService,
		Alerts:        alertService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
