// cmd/travel/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travelcatalog/internal/config"
	"travelcatalog/internal/database"
	"travelcatalog/internal/migrations"
	"travelcatalog/internal/server"
	"travelcatalog/internal/telemetry"
	"travelcatalog/internal/travel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing=shutdown status=error error=%v", err)
		}
	}()

	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		migrator, err := migrations.NewMigrator(db)
		if err != nil {
			log.Fatalf("Failed to load migrations: %v", err)
		}
		ran, err := migrator.Up(ctx)
		for _, m := range ran {
			log.Printf("migration=%04d_%s status=applied", m.Version, m.Name)
		}
		if err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	repo := travel.NewPostgresRepository(db, cfg.StoreTimeout)
	svc := travel.NewService(repo)
	handler := travel.NewHandler(svc)
	router := server.NewRouter(handler, db, server.Options{
		SeatRateLimit: cfg.SeatRateLimit,
		SeatRateBurst: cfg.SeatRateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server=shutdown status=error error=%v", err)
		}
	}()

	log.Printf("Starting Travel Catalog Service on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
