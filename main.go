package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	engine "zecbay-auction/internal/auctionEngine"
	"zecbay-auction/internal/repository"
	"zecbay-auction/internal/scheduler"
	"zecbay-auction/internal/server"
	"zecbay-auction/internal/stream"
	"zecbay-auction/utils"
)

func main() {
	store := repository.NewMemoryStore()
	eng := engine.NewAuctionEngine(store, engine.DefaultThresholds())
	hub := stream.NewHub()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(eng, store, hub, getTickInterval())
	go sched.Run(ctx)

	router := server.SetupRouter(eng, hub)

	port := getPort()
	utils.Info("starting auction server", map[string]any{"port": port})
	if err := router.Run(port); err != nil {
		utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
	}
}

// getPort returns the server port from env or defaults to ":8080"
func getPort() string {
	if p := os.Getenv("PORT"); p != "" {
		return fmt.Sprintf(":%s", p)
	}
	return ":8080"
}

// getTickInterval returns the scheduler sweep interval from env or the
// authoritative one-second default.
func getTickInterval() time.Duration {
	if raw := os.Getenv("TICK_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
		utils.Warn("invalid TICK_INTERVAL, using default", map[string]any{"value": raw})
	}
	return time.Second
}
