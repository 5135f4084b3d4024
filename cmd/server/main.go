package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avoda-labs/jobboard/backend/internal/applications"
	"github.com/avoda-labs/jobboard/backend/internal/audit"
	"github.com/avoda-labs/jobboard/backend/internal/auth"
	"github.com/avoda-labs/jobboard/backend/internal/config"
	"github.com/avoda-labs/jobboard/backend/internal/crypto"
	"github.com/avoda-labs/jobboard/backend/internal/db"
	"github.com/avoda-labs/jobboard/backend/internal/jobs"
	mw "github.com/avoda-labs/jobboard/backend/internal/middleware"
	"github.com/avoda-labs/jobboard/backend/internal/notifications"
	"github.com/avoda-labs/jobboard/backend/internal/placements"
	"github.com/avoda-labs/jobboard/backend/internal/stats"
	"github.com/avoda-labs/jobboard/backend/internal/upload"
	"github.com/avoda-labs/jobboard/backend/internal/ws"
)

func main() {
	cfg := config.Load()

	// Database
	ctx := context.Background()
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("WARNING: database connection failed: %v (continuing without DB)", err)
	} else {
		defer database.Close()
		if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Printf("WARNING: migrations failed: %v", err)
		}
	}

	var pool *pgxpool.Pool
	if database != nil {
		pool = database.Pool
	}

	// JWT & Auth
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := auth.NewAuthService(database, jwtService)
	authHandlers := auth.NewHandlers(authService)

	// CV storage (encrypted at rest)
	sealer, err := crypto.NewSealer(cfg.UploadKeyHex)
	if err != nil {
		log.Fatalf("invalid UPLOAD_KEY: %v", err)
	}
	uploadStore, err := upload.NewStore(cfg.UploadDir, sealer)
	if err != nil {
		log.Fatalf("upload store setup failed: %v", err)
	}

	// Domain stores
	statsStore := stats.NewStore(pool)
	jobStore := jobs.NewStore(pool)
	appStore := applications.NewStore(pool)
	placementStore := placements.NewStore(pool)
	notifStore := notifications.NewNotificationStore(pool)

	// Audit Log
	auditStore := audit.NewStore(pool)
	auditHandlers := audit.NewHandlers(auditStore)

	// WebSocket registry and hub
	registry := ws.NewRegistry()
	hub := ws.NewHub(registry)

	snapshotter := ws.NewSnapshotter(&snapshotSource{
		stats:         statsStore,
		jobs:          jobStore,
		applications:  appStore,
		notifications: notifStore,
	})
	wsHandler := ws.NewWSHandler(registry, jwtService, snapshotter, ws.InboundHooks{
		MarkNotificationRead: notifStore.MarkRead,
	})

	// Notifications system
	broker, err := notifications.NewBroker(cfg)
	if err != nil {
		log.Fatalf("notification broker setup failed: %v", err)
	}
	defer broker.Close() //nolint:errcheck // best-effort cleanup on shutdown

	producer := notifications.NewEventProducer(broker)

	consumer := notifications.NewConsumer(broker, hub, notifStore, func(ctx context.Context) (interface{}, error) {
		return statsStore.Overview(ctx)
	})
	if err := consumer.Start(); err != nil {
		log.Printf("WARNING: notification consumer failed to start: %v", err)
	}
	defer consumer.Stop()

	notifHandlers := notifications.NewHandlers(notifStore)

	// Domain handlers
	jobHandlers := jobs.NewHandlers(jobStore, producer)
	appHandlers := applications.NewHandlers(appStore, jobStore, uploadStore, producer)
	placementHandlers := placements.NewHandlers(placementStore, producer)

	// Router
	r := mux.NewRouter()

	// Rate limiting: 100 req/s per IP with burst of 200
	r.Use(mw.RateLimitMiddleware(100, 200))

	// Health check (no auth)
	r.HandleFunc("/healthz", healthzHandler).Methods("GET")

	// Public routes (browsing and auth, global rate limit applies)
	authHandlers.RegisterRoutes(r)
	jobHandlers.RegisterRoutes(r)

	// Protected routes
	protected := r.PathPrefix("").Subrouter()
	protected.Use(mw.AuthMiddleware(jwtService))
	if pool != nil {
		protected.Use(audit.Middleware(auditStore))
	}

	authHandlers.RegisterProtectedRoutes(protected)
	jobHandlers.RegisterProtectedRoutes(protected)
	appHandlers.RegisterProtectedRoutes(protected)
	notifHandlers.RegisterRoutes(protected)

	// Admin routes
	admin := protected.PathPrefix("").Subrouter()
	admin.Use(mw.RequireRole(auth.RoleAdmin))

	authHandlers.RegisterAdminRoutes(admin)
	appHandlers.RegisterAdminRoutes(admin)
	placementHandlers.RegisterAdminRoutes(admin)
	auditHandlers.RegisterAdminRoutes(admin)

	// WebSocket (auth handled inside handler, token via query param)
	wsHandler.RegisterRoutes(r)

	// HTTP Server — CORS wraps the entire router so OPTIONS preflight
	// requests are handled before mux routing (which would 404 on OPTIONS).
	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        corsMiddleware(r),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Graceful shutdown: stop accepting HTTP first, then close sockets.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
		registry.Shutdown()
	}()

	log.Printf("Starting server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}

	log.Println("Server stopped")
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}

	origins := make(map[string]bool)
	for _, o := range strings.Split(allowedOrigins, ",") {
		origins[strings.TrimSpace(o)] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(origins) == 1 {
			// Single origin mode: always set it (for dev convenience)
			for o := range origins {
				w.Header().Set("Access-Control-Allow-Origin", o)
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
