package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/escrowaudit/backend/src/config"
	"github.com/username/escrowaudit/backend/src/handlers"
	"github.com/username/escrowaudit/backend/src/logger"
	"github.com/username/escrowaudit/backend/src/parsers"
	"github.com/username/escrowaudit/backend/src/processors"
	"github.com/username/escrowaudit/backend/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := make(map[string]bool, len(config.Cfg.AllowedOrigins))
		for _, o := range config.Cfg.AllowedOrigins {
			allowed[o] = true
		}

		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("EscrowAudit backend server starting...")

	reportCache := cache.New(config.Cfg.ReportCacheTTL, config.Cfg.ReportCacheCleanupInterval)

	registryParser := parsers.NewRegistryParser()
	ledgerParser := parsers.NewLedgerParser(config.Cfg.LedgerScanRowCap)
	matcher := processors.NewMatcher()

	verifier := processors.NewVerifier()
	verifier.AmountTolerance = config.Cfg.AmountTolerance
	verifier.BounceWindow = time.Duration(config.Cfg.BounceWindowDays) * 24 * time.Hour
	verifier.BounceAmountTolerance = config.Cfg.BounceAmountTolerance
	verifier.StrictNoTxn = config.Cfg.StrictNoTxnStatus

	costSheetProcessor := processors.NewCostSheetProcessor(processors.DefaultCostRates())

	reconciliationService := services.NewReconciliationService(
		registryParser,
		ledgerParser,
		matcher,
		verifier,
		costSheetProcessor,
		reportCache,
	)

	reconcileHandler := handlers.NewReconcileHandler(reconciliationService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "EscrowAudit Backend is running"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/reconcile", reconcileHandler.HandleReconcile)
		r.Get("/reconcile/latest", reconcileHandler.HandleLatestReport)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
