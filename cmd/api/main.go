package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcclellann/fredInstallments/pkg/cache"
	"github.com/mcclellann/fredInstallments/pkg/config"
	"github.com/mcclellann/fredInstallments/pkg/ledger"
	"github.com/mcclellann/fredInstallments/pkg/metrics"
	"github.com/mcclellann/fredInstallments/pkg/models"
	"github.com/mcclellann/fredInstallments/pkg/store"
	"github.com/mcclellann/fredInstallments/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
)

// Server holds the ledger instance.
type Server struct {
	ledger     *ledger.Ledger
	storage    store.Storage // Keep a reference to the storage to close it
	cache      cache.Cache   // nil when REDIS_URL is unset
	dashboards *cache.Generation
	cfg        *config.Config
}

func NewServer(s store.Storage, c cache.Cache, cfg *config.Config) *Server {
	return &Server{
		ledger:     ledger.NewLedger(s),
		storage:    s,
		cache:      c,
		dashboards: cache.NewGeneration(c, "dashboard"),
		cfg:        cfg,
	}
}

// Router wires every endpoint behind the tracing and metrics middleware.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(tracingMiddleware, metricsMiddleware)

	router.HandleFunc("/customers", s.listCustomersHandler).Methods("GET")
	router.HandleFunc("/customers", s.createCustomerHandler).Methods("POST")
	router.HandleFunc("/customers/{id}", s.getCustomerHandler).Methods("GET")
	router.HandleFunc("/customers/{id}", s.updateCustomerHandler).Methods("PUT")
	router.HandleFunc("/customers/{id}", s.deleteCustomerHandler).Methods("DELETE")
	router.HandleFunc("/customers/{id}/statement", s.statementHandler).Methods("GET")
	router.HandleFunc("/customers/{id}/statement.xlsx", s.statementExportHandler).Methods("GET")
	router.HandleFunc("/customers/{id}/devices", s.addDeviceHandler).Methods("POST")

	router.HandleFunc("/devices/{id}", s.getDeviceHandler).Methods("GET")
	router.HandleFunc("/devices/{id}", s.updateDeviceHandler).Methods("PUT")
	router.HandleFunc("/devices/{id}", s.deleteDeviceHandler).Methods("DELETE")
	router.HandleFunc("/devices/{id}/summary", s.deviceSummaryHandler).Methods("GET")
	router.HandleFunc("/devices/{id}/payments", s.recordPaymentHandler).Methods("POST")

	router.HandleFunc("/payments/{id}", s.updatePaymentHandler).Methods("PUT")
	router.HandleFunc("/payments/{id}", s.deletePaymentHandler).Methods("DELETE")

	router.HandleFunc("/device-definitions", s.listDefinitionsHandler).Methods("GET")
	router.HandleFunc("/device-definitions", s.createDefinitionHandler).Methods("POST")
	router.HandleFunc("/device-definitions/{id}", s.updateDefinitionHandler).Methods("PUT")
	router.HandleFunc("/device-definitions/{id}", s.deleteDefinitionHandler).Methods("DELETE")

	router.HandleFunc("/dashboard", s.dashboardHandler).Methods("GET")
	router.HandleFunc("/export/customers.xlsx", s.customersExportHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequests.WithLabelValues(routeName(r), strconv.Itoa(rec.status)).Inc()
	})
}

func tracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeName(r)
		ctx, span := tracing.Tracer.Start(r.Context(), r.Method+" "+route)
		defer span.End()
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps ledger and store errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func parseID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid %s ID", what), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// asOf reads the as_of query parameter, defaulting to today.
func (s *Server) asOf(w http.ResponseWriter, r *http.Request) (models.Date, bool) {
	v := r.URL.Query().Get("as_of")
	if v == "" {
		return s.ledger.Today(), true
	}
	d, err := models.ParseDate(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid as_of date %q, expected YYYY-MM-DD", v), http.StatusBadRequest)
		return models.Date{}, false
	}
	return d, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// invalidate drops cached aggregates after a write.
func (s *Server) invalidate(ctx context.Context) {
	s.dashboards.Invalidate(ctx)
}

// runOverdueScan periodically logs overdue devices and refreshes the gauges.
func (s *Server) runOverdueScan(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Println("Running overdue scan...")
			overdue, err := s.ledger.ScanOverdue(s.ledger.Today())
			if err != nil {
				log.Printf("Overdue scan failed: %v", err)
				continue
			}
			log.Printf("Overdue scan complete, %d devices overdue.", len(overdue))
		}
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracing, err := tracing.InitTracing(cfg.OTELServiceName, cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Initialize SQLite Store
	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	var c cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable, serving without cache: %v", err)
		} else {
			defer redisCache.Close()
			c = redisCache
		}
	}

	server := NewServer(sqliteStore, c, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.runOverdueScan(ctx, cfg.ScanInterval)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Server starting on %s", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Error shutting down tracing: %v", err)
	}
}
