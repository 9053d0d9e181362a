package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"tailorpos-backend/internal/config"
	"tailorpos-backend/internal/db"
	"tailorpos-backend/internal/handler"
	"tailorpos-backend/internal/repository"
	"tailorpos-backend/internal/server"
	"tailorpos-backend/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Firebase Auth (optional)
	var firebaseAuth *auth.Client
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("failed to init firebase auth", "err", err)
			os.Exit(1)
		}
		firebaseAuth = client
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	customerRepo := repository.CustomerRepository{DB: pg}
	catalogRepo := repository.CatalogRepository{DB: pg}
	categoryRepo := repository.CategoryRepository{DB: pg}
	orderRepo := repository.OrderRepository{DB: pg}
	paymentRepo := repository.PaymentRepository{DB: pg}
	invoiceRepo := repository.InvoiceRepository{DB: pg}
	appointmentRepo := repository.AppointmentRepository{DB: pg}
	dashboardRepo := repository.DashboardRepository{DB: pg}
	settingsRepo := repository.SettingsRepository{DB: pg}
	activityLogRepo := repository.ActivityLogRepository{DB: pg}
	notificationRepo := repository.NotificationRepository{DB: pg}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger, FirebaseAuth: firebaseAuth}
	orderSvc := service.OrderService{
		Orders:        orderRepo,
		Payments:      paymentRepo,
		Notifications: notificationRepo,
		ActivityLogs:  activityLogRepo,
		Logger:        logger,
	}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	authHandler := handler.AuthHandler{Service: &authSvc}
	customerHandler := handler.CustomerHandler{Repo: customerRepo}
	catalogHandler := handler.CatalogHandler{Repo: catalogRepo, Currency: cfg.DefaultCurrency}
	catalogAdminHandler := handler.CatalogAdminHandler{Repo: catalogRepo}
	categoryHandler := handler.CategoryHandler{Repo: categoryRepo}
	orderHandler := handler.OrderHandler{Service: &orderSvc, Currency: cfg.DefaultCurrency}
	garmentHandler := handler.GarmentHandler{Service: &orderSvc}
	paymentHandler := handler.PaymentHandler{Service: &orderSvc, Currency: cfg.DefaultCurrency}
	invoiceHandler := handler.InvoiceHandler{Repo: invoiceRepo, Orders: &orderSvc, InvoicePrefix: cfg.InvoicePrefix}
	appointmentHandler := handler.AppointmentHandler{Repo: appointmentRepo}
	dashboardHandler := handler.DashboardHandler{Repo: dashboardRepo}
	settingsHandler := handler.SettingsHandler{Repo: settingsRepo}
	activityLogHandler := handler.ActivityLogHandler{Repo: activityLogRepo}
	notificationHandler := handler.NotificationHandler{Repo: notificationRepo}
	docsHandler := handler.DocsHandler{OpenAPIPath: "openapi.yaml"}
	homeHandler := handler.HomeHandler{}

	router := server.NewRouter(cfg, logger,
		healthHandler, authHandler, customerHandler, catalogHandler, catalogAdminHandler,
		categoryHandler, orderHandler, garmentHandler, paymentHandler, invoiceHandler,
		appointmentHandler, dashboardHandler, settingsHandler, activityLogHandler,
		notificationHandler, docsHandler, homeHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
