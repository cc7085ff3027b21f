package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/orrn/printdesk/internal/api"
	"github.com/orrn/printdesk/internal/api/handlers"
	"github.com/orrn/printdesk/internal/api/middleware"
	"github.com/orrn/printdesk/internal/archive"
	"github.com/orrn/printdesk/internal/config"
	"github.com/orrn/printdesk/internal/core"
	"github.com/orrn/printdesk/internal/db"
	"github.com/orrn/printdesk/internal/dynamo"
	"github.com/orrn/printdesk/internal/notify"
	"github.com/orrn/printdesk/internal/utils"
)

const workerTokenSetting = "worker_token"

func main() {
	cfg, err := config.Load(os.Getenv("PRINTDESK_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	database, err := db.Open(db.Config{Path: cfg.Database.Path})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	store := db.NewStore(database)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var orders interface {
		core.OrderStore
		handlers.OrderRepository
	} = store.Orders
	if cfg.Database.OrderStore == "dynamodb" {
		client, err := dynamo.Connect(ctx)
		if err != nil {
			log.Fatalf("Failed to connect to DynamoDB: %v", err)
		}
		orders = dynamo.NewOrderStore(client, cfg.Database.OrdersTable)
		log.Printf("Using DynamoDB order table %s", cfg.Database.OrdersTable)
	}

	workerToken, err := resolveWorkerToken(ctx, store.Settings, cfg.Auth.WorkerToken)
	if err != nil {
		log.Fatalf("Failed to resolve worker token: %v", err)
	}

	notifier := notify.NewSender(cfg.Notify)
	notifier.Start()

	recorder := core.NewRecorder(store.Logs, store.Alerts, notifier)
	retryQueue := core.NewRetryQueue(&cfg.Queue)
	registry := core.NewPrinterRegistry(store.Printers, store.Counters, recorder, &cfg.Printers)
	escalation := core.NewEscalationMonitor(orders, store.Jobs, registry, recorder, retryQueue)
	leases := core.NewLeaseManager(orders, store.Jobs, registry, escalation, recorder, &cfg.Lease)
	dispatch := core.NewDispatchClient(core.ParsePrinterURLs(cfg.Printers.APIURLs), cfg.Printers.ConnectionTimeout, retryQueue)
	admission := core.NewAdmission(orders, store.Jobs, dispatch, leases, escalation, recorder, cfg.Queue.WorkerCount)
	monitor := core.NewMonitor(orders, store.Jobs, store.Logs, store.Alerts, store.Counters, registry, leases, dispatch)

	if err := registry.Start(ctx); err != nil {
		log.Fatalf("Failed to start printer registry: %v", err)
	}
	retryQueue.Start(admission.Redispatch)
	leases.Start()

	if len(dispatch.PrinterURLs()) == 0 {
		log.Printf("No printer API URLs configured, dispatch is disabled")
	}

	archiver, err := archive.NewArchiver(database, cfg.Archive)
	if err != nil {
		log.Fatalf("Failed to create archiver: %v", err)
	}
	archiver.Start()

	auth, err := middleware.NewAuthMiddleware(store.Admins, store.Settings, cfg.Auth.TokenDuration)
	if err != nil {
		log.Fatalf("Failed to create auth middleware: %v", err)
	}

	router := api.SetupRouter(api.Handlers{
		Print:   handlers.NewPrintHandler(admission, dispatch),
		Admin:   handlers.NewAdminHandler(monitor, escalation, leases, store.Logs, store.Alerts, registry),
		Worker:  handlers.NewWorkerHandler(leases, registry, monitor),
		Orders:  handlers.NewOrderHandler(orders, monitor),
		Health:  handlers.NewHealthHandler(database),
		Archive: handlers.NewArchiveHandler(archiver),
	}, auth, workerToken)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Starting HTTP server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	cancel()
	archiver.Stop()
	leases.Stop()
	retryQueue.Stop()
	registry.Stop()
	notifier.Stop()

	log.Println("Shutdown complete")
}

// resolveWorkerToken returns the configured token, or the one persisted in
// settings, generating and storing a new one on first start.
func resolveWorkerToken(ctx context.Context, settings *db.SettingsOperations, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	s, err := settings.GetSetting(ctx, workerTokenSetting)
	if err == nil && s.Value != "" {
		return s.Value, nil
	}
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return "", err
	}

	token := utils.GenerateToken(32)
	if err := settings.SetSetting(ctx, workerTokenSetting, token); err != nil {
		return "", err
	}
	log.Printf("Generated worker token %s (set PRINTDESK_WORKER_TOKEN to override)", token)
	return token, nil
}
