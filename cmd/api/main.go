package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lutefd/pokerlog/internal/config"
	"github.com/lutefd/pokerlog/internal/events"
	httpserver "github.com/lutefd/pokerlog/internal/http"
	"github.com/lutefd/pokerlog/internal/storage/postgres"
	"github.com/lutefd/pokerlog/internal/tracker"
)

func main() {
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer store.Close()

	bus := events.NewBus()
	bus.SubscribeAll(func(_ context.Context, e events.Event) error {
		log.Printf("%s session=%s user=%s status=%s at=%s", e.Name, e.Session.ID, e.Session.UserID, e.Session.Status, e.At.Format(time.RFC3339))
		return nil
	})

	srv := httpserver.NewServer(httpserver.Dependencies{
		Tracker:       tracker.NewService(store, bus),
		DB:            store,
		APIToken:      cfg.APIToken,
		JWTSecret:     cfg.JWTSecret,
		DefaultUserID: cfg.DefaultUserID,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen and serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
