package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vidgate/vidgate/internal/checkout"
	"github.com/vidgate/vidgate/internal/config"
	"github.com/vidgate/vidgate/internal/database"
	"github.com/vidgate/vidgate/internal/entitlement"
	"github.com/vidgate/vidgate/internal/logging"
	"github.com/vidgate/vidgate/internal/notify"
	"github.com/vidgate/vidgate/internal/provider"
	"github.com/vidgate/vidgate/internal/provider/fulcrum"
	"github.com/vidgate/vidgate/internal/provider/nimbus"
	"github.com/vidgate/vidgate/internal/session"
	"github.com/vidgate/vidgate/internal/shelf"
	"github.com/vidgate/vidgate/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	store := storage.New(db)

	resolver := provider.NewResolver()
	switch cfg.Integration {
	case config.IntegrationNimbus:
		resolver.Configure(nimbus.NewBundle(nimbus.Config{
			BaseURL:   cfg.APIBaseURL,
			WSBaseURL: cfg.WSBaseURL,
			APIKey:    cfg.APIKey,
		}))
	case config.IntegrationFulcrum:
		resolver.Configure(fulcrum.NewBundle(fulcrum.Config{
			BaseURL:         cfg.APIBaseURL,
			WSBaseURL:       cfg.WSBaseURL,
			APIKey:          cfg.APIKey,
			StripeSecretKey: cfg.StripeSecretKey,
			PriceIDs:        cfg.StripePriceIDs,
			SuccessURL:      cfg.SuccessURL,
			CancelURL:       cfg.CancelURL,
		}))
	}

	manager := session.NewManager(store, resolver, logger)
	checker := entitlement.NewChecker(resolver, manager)
	controller := checkout.NewController(resolver, manager, checker, logger)
	shelves := shelf.NewSynchronizer(store, resolver, manager, logger)
	dispatcher := notify.NewDispatcher(resolver, manager, controller, &logSink{logger: logger}, logger)
	manager.Attach(controller, shelves, dispatcher, checker)

	ctx := context.Background()
	if err := manager.Restore(ctx); err != nil {
		logger.Error("restore session", "error", err)
	}
	fmt.Printf("vidgate running (%s integration)\n", resolver.Name())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	dispatcher.Close()
}
