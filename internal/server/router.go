package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tailorpos-backend/internal/config"
	"tailorpos-backend/internal/domain"
	"tailorpos-backend/internal/handler"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	auth handler.AuthHandler,
	customers handler.CustomerHandler,
	catalog handler.CatalogHandler,
	catalogAdmin handler.CatalogAdminHandler,
	categories handler.CategoryHandler,
	orders handler.OrderHandler,
	garments handler.GarmentHandler,
	payments handler.PaymentHandler,
	invoices handler.InvoiceHandler,
	appointments handler.AppointmentHandler,
	dashboard handler.DashboardHandler,
	settings handler.SettingsHandler,
	activityLog handler.ActivityLogHandler,
	notifications handler.NotificationHandler,
	docs handler.DocsHandler,
	home handler.HomeHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	home.RegisterRoutes(r)
	docs.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		// staff-level (staff/manager/admin)
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleStaff))
			auth.RegisterProtectedRoutes(sr)
			customers.RegisterRoutes(sr)
			catalog.RegisterRoutes(sr)
			orders.RegisterRoutes(sr)
			garments.RegisterRoutes(sr)
			payments.RegisterRoutes(sr)
			appointments.RegisterRoutes(sr)
			notifications.RegisterRoutes(sr)
		})
		// manager-level (manager/admin)
		pr.Group(func(mr chi.Router) {
			mr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager))
			dashboard.RegisterRoutes(mr)
			catalogAdmin.RegisterRoutes(mr)
			categories.RegisterRoutes(mr)
			invoices.RegisterRoutes(mr)
			settings.RegisterRoutes(mr)
			activityLog.RegisterRoutes(mr)
		})
	})

	return r
}
