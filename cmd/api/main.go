package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/subtrackhq/subtrack-backend/internal/config"
	"github.com/subtrackhq/subtrack-backend/internal/modules/auth"
	"github.com/subtrackhq/subtrack-backend/internal/modules/catalog"
	"github.com/subtrackhq/subtrack-backend/internal/modules/customer"
	"github.com/subtrackhq/subtrack-backend/internal/modules/dashboard"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
	"github.com/subtrackhq/subtrack-backend/internal/modules/payment"
	"github.com/subtrackhq/subtrack-backend/internal/modules/plan"
	"github.com/subtrackhq/subtrack-backend/internal/modules/subscription"
	"github.com/subtrackhq/subtrack-backend/internal/modules/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := newLogger(cfg)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("failed to reach database")
	}
	log.Info("connected to the database")

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	// ── Phase 1: Identity ───────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	user.NewHandler(userService).RegisterRoutes(router)

	authService := auth.NewService(userRepo, cfg.JWTSecret)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Repositories & services ─────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)

	planRepo := plan.NewPostgresRepository(db)
	planService := plan.NewService(planRepo)

	customerRepo := customer.NewPostgresRepository(db)
	customerService := customer.NewService(customerRepo, userService, cfg.PortalBaseURL)

	invoiceRepo := invoice.NewPostgresRepository(db)
	invoiceService := invoice.NewService(invoiceRepo)

	subscriptionRepo := subscription.NewPostgresRepository(db)
	subscriptionService := subscription.NewService(subscriptionRepo, catalogRepo, log)

	paymentGateways := payment.GatewayRegistry{
		payment.ProviderCard: payment.NewSimulatedCardGateway("sandbox"),
		payment.ProviderBank: payment.NewBankTransferGateway("sandbox"),
	}
	paymentRepo := payment.NewPostgresRepository(db)
	paymentService := payment.NewService(paymentRepo, invoiceService, paymentGateways, log)

	dashboardRepo := dashboard.NewPostgresRepository(db)
	dashboardService := dashboard.NewService(dashboardRepo, customerRepo, subscriptionRepo, invoiceRepo)

	// ── Tenant-scoped routes ────────────────────────────────
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))

		catalog.NewHandler(catalogService).RegisterRoutes(r)
		plan.NewHandler(planService).RegisterRoutes(r)
		customer.NewHandler(customerService).RegisterRoutes(r)
		subscription.NewHandler(subscriptionService).RegisterRoutes(r)
		invoice.NewHandler(invoiceService).RegisterRoutes(r)
		payment.NewHandler(paymentService).RegisterRoutes(r)
		dashboard.NewHandler(dashboardService).RegisterRoutes(r)
	})

	// ── Renewal scheduler ───────────────────────────────────
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.RenewalSchedule, func() {
		summary, err := subscriptionService.ProcessAllRenewals(context.Background())
		if err != nil {
			log.WithError(err).Error("scheduled renewal sweep failed")
			return
		}
		log.WithFields(logrus.Fields{
			"processed": summary.ProcessedCount,
			"errors":    len(summary.Errors),
		}).Info("scheduled renewal sweep finished")
	})
	if err != nil {
		log.WithError(err).Fatal("invalid renewal schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.WithField("port", cfg.Port).Info("subtrack API server starting")
	log.Fatal(http.ListenAndServe(":"+cfg.Port, router))
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
