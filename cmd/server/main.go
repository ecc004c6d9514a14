package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masjid-display-server/internal/config"
	"masjid-display-server/internal/handler"
	"masjid-display-server/internal/middleware"
	"masjid-display-server/internal/repository"
	"masjid-display-server/internal/service"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(level)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		logrus.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			logrus.Fatalf("Failed to create database: %v", err)
		}
		logrus.Infof("Created database: %s", cfg.Database.Name)
	}

	deviceRepo := repository.NewDeviceRepository(client, cfg.Database.Name)
	scheduleRepo := repository.NewScheduleRepository(client, cfg.Database.Name)
	previewRepo := repository.NewPreviewTokenRepository(client, cfg.Database.Name)

	deviceAuthService := service.NewDeviceAuthService(deviceRepo)
	scheduleService := service.NewScheduleService(scheduleRepo, cfg.Schedule.InsertBatchSize, cfg.Schedule.ResolveCacheTTL)
	previewService := service.NewPreviewTokenService(previewRepo, cfg.Preview.DefaultTTL)

	deviceHandler := handler.NewDeviceHandler(deviceAuthService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	previewHandler := handler.NewPreviewHandler(previewService)

	r := newRouter(cfg, deviceHandler, scheduleHandler, previewHandler)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Starting masjid display server on %s (env: %s)", addr, cfg.Server.Env)
		logrus.Infof("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server stopped gracefully")
}

func newRouter(
	cfg *config.Config,
	deviceHandler *handler.DeviceHandler,
	scheduleHandler *handler.ScheduleHandler,
	previewHandler *handler.PreviewHandler,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	// Display-facing paths: polled by unattended devices and their
	// rendering layer, no admin credentials involved.
	r.HandleFunc("/device/auth", deviceHandler.Probe).Methods("POST", "OPTIONS")
	r.HandleFunc("/device/register", deviceHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/schedules", scheduleHandler.Query).Methods("GET", "OPTIONS")
	r.HandleFunc("/preview", previewHandler.Redeem).Methods("GET", "OPTIONS")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	api.HandleFunc("/devices", deviceHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/devices/decide", deviceHandler.Decide).Methods("POST", "OPTIONS")
	api.HandleFunc("/devices/{deviceId}/{displayId}", deviceHandler.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/schedules/upload", scheduleHandler.Upload).Methods("POST", "OPTIONS")
	api.HandleFunc("/schedules/summary", scheduleHandler.Summary).Methods("GET", "OPTIONS")
	api.HandleFunc("/schedules/{label}", scheduleHandler.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/displays/{displayId}/preview-token", previewHandler.Issue).Methods("POST", "OPTIONS")
	api.HandleFunc("/preview-tokens/{id}", previewHandler.Revoke).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/health", healthHandler).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"masjid-display-server"}`))
}
