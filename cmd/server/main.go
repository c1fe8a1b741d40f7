package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pontox/config"
	"pontox/internal/catalog"
	"pontox/internal/database"
	"pontox/internal/router"
	"pontox/internal/service"
	"pontox/internal/telemetry"
	"pontox/internal/ws"
	"pontox/pkg/cloudinary"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Printf("[otel] tracing disabled: %v", err)
	}

	store, closeStore, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer closeStore()

	cat, err := catalog.Default()
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	} else {
		log.Printf("[cloudinary] spot image upload disabled: set CLOUDINARY_CLOUD_NAME to enable")
	}

	var pusher service.Pusher
	if fcm := service.NewFCMService(ctx, cfg.Firebase.ServiceAccountPath); fcm != nil {
		log.Printf("[FCM] Push notifications enabled")
		pusher = fcm
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Printf("[FCM] Push notifications disabled: failed to init (check service account file)")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}

	hub := ws.NewHub()
	svc := router.NewServices(cfg, store, cat, cloud, pusher, hub)
	if err := svc.Auth.SeedAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if n, err := svc.Spots.SeedDefaults(ctx, cat.Spots); err != nil {
		log.Fatalf("seed spots: %v", err)
	} else if n > 0 {
		log.Printf("[store] seeded %d tourist spots", n)
	}

	engine := router.Setup(ctx, cfg, svc, hub)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(engine, "pontox"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s (store: %s)", cfg.Server.Port, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("[otel] shutdown: %v", err)
	}
	log.Println("server stopped")
}
