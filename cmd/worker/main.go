// Worker runs the periodic maintenance sweeps: expired and long-revoked
// refresh tokens, expired blacklist entries, expired account locks, and old
// login attempt audit rows. Set DATABASE_URL; SWEEP_INTERVAL and the retention
// knobs are optional. OTLP_ENDPOINT enables sweep metrics export.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-auth-service/internal/app"
	"rental-auth-service/internal/config"
	"rental-auth-service/internal/db"
	"rental-auth-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, pool)
	if err != nil {
		log.Fatalf("app: %v", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: sweeping every %s", cfg.SweepEvery())
	a.Sweeper.Run(ctx)

	// Let in-flight telemetry drain before tearing the backends down.
	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker: shutdown: %v", err)
	}
	log.Println("worker: stopped")
}
