// Package main is the entry point for the ResQLink disaster response server.
// It provides a REST API for citizen disaster report submission, authenticity
// classification, admin verification with a tamper-evident ledger, and
// geofenced real-time alert dispatch.
//
// Architecture:
//   - Reports are scored on submission by a weighted authenticity classifier
//   - Admin verification appends a hash-linked block to the verification ledger
//   - Alerts select recipients by haversine distance (3 km default, 10 max)
//   - Notification payloads fan out over Redis pub/sub to connected clients
//   - Sensitive payloads cross untrusted channels sealed with AES-256-GCM
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/classifier"
	"github.com/resqlink/disaster-server/internal/config"
	"github.com/resqlink/disaster-server/internal/database"
	"github.com/resqlink/disaster-server/internal/dispatch"
	"github.com/resqlink/disaster-server/internal/handlers"
	"github.com/resqlink/disaster-server/internal/ledger"
	"github.com/resqlink/disaster-server/internal/middleware"
	"github.com/resqlink/disaster-server/internal/notify"
	"github.com/resqlink/disaster-server/internal/observability"
	"github.com/resqlink/disaster-server/internal/securemsg"
	"github.com/resqlink/disaster-server/internal/services"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting ResQLink Disaster Response Server",
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Initialize database connection pool
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Real-time alert transport
	publisher, err := notify.NewRedisPublisher(context.Background(), cfg.RedisURL, sugar)
	if err != nil {
		sugar.Fatalf("Failed to connect to redis: %v", err)
	}
	defer publisher.Close()

	// Core engines
	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	reportClassifier := classifier.New(sugar)
	chain := ledger.New(clock, sugar)
	alertDispatcher := dispatch.New(clock, sugar)

	messenger, err := securemsg.New(cfg.MessagingSecret, clock, sugar)
	if err != nil {
		sugar.Fatalf("Failed to initialize secure messaging: %v", err)
	}

	// Initialize services
	reportSvc := services.NewReportService(db, sugar)
	alertSvc := services.NewAlertService(db, sugar)
	recipientSvc := services.NewRecipientService(db, sugar)
	auditSvc := services.NewAdminAuditService(db, sugar)

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(reportSvc, reportClassifier, metrics, sugar)
	adminHandler := handlers.NewAdminHandler(reportSvc, alertSvc, recipientSvc, auditSvc,
		chain, alertDispatcher, publisher, metrics, cfg.DefaultAlertRadiusKm, sugar)
	alertHandler := handlers.NewAlertHandler(alertSvc, sugar)
	ledgerHandler := handlers.NewLedgerHandler(chain, metrics, sugar)
	secureHandler := handlers.NewSecureMessageHandler(messenger, sugar)
	recipientHandler := handlers.NewRecipientHandler(recipientSvc, sugar)
	healthHandler := handlers.NewHealthHandler(db, chain, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Admin-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Report endpoints
		r.Route("/reports", func(r chi.Router) {
			r.Post("/", reportHandler.Submit)                            // Submit report (classified on intake)
			r.Get("/", reportHandler.All)                                // Recent reports
			r.Get("/verified", reportHandler.Verified)                   // Verified reports
			r.Get("/submitter/{submitterID}", reportHandler.BySubmitter) // One submitter's reports
		})

		// Public alert listing
		r.Get("/alerts", alertHandler.List)

		// Recipient location registry for geofenced alerts
		r.Put("/recipients/{id}/location", recipientHandler.UpdateLocation)

		// Verification ledger (public integrity audit)
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/chain", ledgerHandler.Chain)
			r.Get("/genesis", ledgerHandler.Genesis)
			r.Get("/verify", ledgerHandler.Verify)
		})

		// Secure message relay
		r.Route("/secure", func(r chi.Router) {
			r.Post("/encrypt", secureHandler.Encrypt)
			r.Post("/decrypt", secureHandler.Decrypt)
		})

		// Admin endpoints (verification, dispatch, re-analysis)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.JWTSecret))
			r.Put("/reports/{id}/verify", adminHandler.VerifyReport)
			r.Post("/reports/{id}/analyze", reportHandler.Reanalyze)
			r.Post("/alerts/send", adminHandler.SendAlert)
			r.Post("/alerts/location", adminHandler.LocationAlert)
			r.Post("/broadcast", adminHandler.Broadcast)
			r.Get("/stats", adminHandler.Stats)
			r.Get("/actions", adminHandler.RecentActions)
			r.Get("/ml/stats", reportHandler.Stats)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
