package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kazinest/api/internal/billing"
	"kazinest/api/internal/config"
	"kazinest/api/internal/db"
	"kazinest/api/internal/logger"
	"kazinest/api/internal/middleware"
	"kazinest/api/internal/paystack"
	"kazinest/api/internal/usage"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (ignores error if file is absent)
	_ = godotenv.Load()

	cfg := config.Load()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Fatalf("create data directory: %v", err)
	}

	sqlite, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer sqlite.Close()

	if err := db.Migrate(sqlite); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	mux := http.NewServeMux()

	// Billing endpoints (only registered when PAYSTACK_SECRET_KEY is set)
	if cfg.PaystackSecretKey != "" {
		client := paystack.NewClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL)
		verifier := paystack.NewVerifier(client, cfg.VerifyAttempts, cfg.VerifyDelay)
		reconciler := billing.NewReconciler(sqlite, usage.NewTracker(sqlite))
		service := billing.NewService(sqlite, verifier, reconciler, cfg.DefaultCurrency)
		handler := billing.NewHandler(sqlite, service, client, cfg)

		mux.HandleFunc("/api/verify-payment", handler.VerifyPayment)
		mux.HandleFunc("/api/initialize-payment", handler.InitializePayment)
		mux.HandleFunc("/api/payment-status", handler.PaymentStatus)
		mux.HandleFunc("/api/paystack/webhook", handler.Webhook)
		logger.Infof("Paystack billing endpoints registered (verify + initialize + webhook)")
	} else {
		logger.Warnf("PAYSTACK_SECRET_KEY not set — billing endpoints disabled")
	}

	handler := middleware.CORS(cfg.CORSOrigins)(middleware.Auth(cfg.JWTSecret)(mux))

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Infof("API server listening on %s", addr)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatalf("shutdown error: %v", err)
	}
	logger.Infof("server stopped")
}
