package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"enculture-be/internal/bootstrap"
	"enculture-be/internal/config"
	"enculture-be/internal/server"
	"enculture-be/internal/tracer"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	// 3. Tracer
	shutdownTracer := tracer.InitTracer(cfg.Telemetry, config.Version, container.Logger)

	// 4. Background Services
	if err := container.StartWorkers(ctx); err != nil {
		log.Fatalf("Failed to start background workers: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		container.Logger.Info("Main", "Shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			container.Logger.Warn("Main", "Server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
		if err := shutdownTracer(shutdownCtx); err != nil {
			container.Logger.Warn("Main", "Tracer shutdown failed", map[string]interface{}{"error": err.Error()})
		}
		return container.Close()
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
