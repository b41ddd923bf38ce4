package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	accountshandler "seiwa/internal/accounts/handler"
	accountsservice "seiwa/internal/accounts/service"
	accountsstore "seiwa/internal/accounts/store"
	financehandler "seiwa/internal/finance/handler"
	financeservice "seiwa/internal/finance/service"
	financestore "seiwa/internal/finance/store"
	jwttoken "seiwa/internal/jwt_token"
	"seiwa/internal/platform/config"
	"seiwa/internal/platform/httpserver"
	"seiwa/internal/platform/logger"
	"seiwa/internal/platform/metrics"
	"seiwa/internal/platform/middleware"
	"seiwa/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	m := metrics.New()

	var (
		financeSt financestore.Store
		accountSt accountsstore.Store
		db        *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("opening database", "error", err)
			os.Exit(1)
		}
		if err := storage.RunMigrations(db); err != nil {
			log.Error("running migrations", "error", err)
			os.Exit(1)
		}
		financeSt = financestore.NewPostgres(db)
		accountSt = accountsstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		financeSt = financestore.NewInMemory()
		accountSt = accountsstore.NewInMemory()
		log.Info("DATABASE_URL not set, using in-memory stores")
	}

	ctx := context.Background()
	if err := accountsstore.SeedSuperuser(ctx, accountSt, cfg.SuperuserUsername, cfg.SuperuserEmail, cfg.SuperuserPassword, log); err != nil {
		log.Error("seeding superuser", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "seiwa", "seiwa-api")
	jwtAdapter := jwttoken.NewJWTServiceAdapter(jwtService)

	financeSvc := financeservice.New(financeSt, log, m)
	accountSvc := accountsservice.New(accountSt, jwtService, cfg.AccessTokenTTL, log)

	financeH := financehandler.New(financeSvc, log)
	accountH := accountshandler.New(accountSvc, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))

	r.Post("/auth/token", accountH.HandleToken)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtAdapter, log))
		r.Get("/profile", accountH.HandleProfile)
		r.Post("/profile", accountH.HandleProfile)
		financeH.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(log))
			r.Get("/admin-test", accountH.HandleAdminTest)
		})
	})

	srv := httpserver.New(cfg.Addr, r)

	log.Info("starting seiwa", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		_ = db.Close()
	}
}
