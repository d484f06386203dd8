package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vbonduro/pantrysync/internal/classify"
	"github.com/vbonduro/pantrysync/internal/config"
	"github.com/vbonduro/pantrysync/internal/db"
	"github.com/vbonduro/pantrysync/internal/hub"
	"github.com/vbonduro/pantrysync/internal/logging"
	"github.com/vbonduro/pantrysync/internal/openfoodfacts"
	"github.com/vbonduro/pantrysync/internal/store"
	"github.com/vbonduro/pantrysync/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	inventoryStore := store.NewInventoryStore(database)
	state := hub.NewStateStore()

	// Restore the shared inventory from the last successful save.
	items, updatedAt, err := inventoryStore.Load(context.Background())
	if err != nil {
		logger.Error("failed to load persisted inventory, starting empty", "error", err)
	} else if len(items) > 0 {
		state.Replace(items)
		logger.Info("inventory restored", "items", len(items), "updated_at", updatedAt)
	}

	resolver := openfoodfacts.NewClient(cfg.LookupBaseURL, cfg.LookupTimeout, cfg.LookupRPS, logger)
	engine := classify.NewEngine(resolver, logger)
	h := hub.New(state, engine, inventoryStore, logger)
	server := web.NewServer(h, state, engine, inventoryStore, cfg.AllowedOrigin, logger)

	logger.Info("sync server ready",
		"addr", cfg.ListenAddr,
		"network_ip", localIP(),
		"websocket_path", "/ws",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe(cfg.ListenAddr)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		h.Shutdown()
		logger.Info("shutdown complete")
	}
}

// localIP returns the first non-loopback IPv4 address, so the startup log
// can print a URL reachable from other devices on the network.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return "localhost"
}
