package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/averix/wsgate/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	registry := server.NewRegistry()
	go registry.Run()

	handler := server.NewUpgradeHandler(cfg, registry, server.NoopHandler{})
	mux := server.SetupRoutes(handler)
	httpServer := server.CreateServer(cfg, mux)

	ln, err := server.Listen(cfg)
	if err != nil {
		log.Fatalf("Failed to bind listener: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.StartServer(httpServer, ln)
	})

	g.Go(func() error {
		<-ctx.Done()
		if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
		return registry.Shutdown(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server exited with error: %v", err)
	}
}
