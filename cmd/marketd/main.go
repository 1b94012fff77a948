package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prompthash/marketplace/cmd/marketd/bootstrap"
	"github.com/prompthash/marketplace/cmd/marketd/handlers"
	"github.com/prompthash/marketplace/internal/events"
	"github.com/prompthash/marketplace/internal/platform/node"
	"github.com/prompthash/marketplace/internal/reconciler"
	"github.com/prompthash/marketplace/pkg/scheduler"

	"github.com/tokenized/pkg/logger"
)

var (
	buildVersion = "unknown"
	buildDate    = "unknown"
	buildUser    = "unknown"
)

// Marketplace Daemon
//
func main() {
	// -------------------------------------------------------------------------
	// Logging

	ctx := bootstrap.NewContextWithDevelopmentLogger()

	// -------------------------------------------------------------------------
	// Config

	cfg := bootstrap.NewConfigFromEnv(ctx)

	// -------------------------------------------------------------------------
	// App Starting

	node.Log(ctx, "Started : Application Initializing")
	defer node.Log(ctx, "Completed")

	node.Log(ctx, "Build %v (%v on %v)", buildVersion, buildUser, buildDate)

	// -------------------------------------------------------------------------
	// Storage and ledgers

	store := bootstrap.NewStorage(ctx, cfg)

	masterDB := bootstrap.NewMasterDB(ctx, store)
	defer masterDB.Close()

	tokens := bootstrap.NewTokenLedger(store)
	payments := bootstrap.NewPaymentLedger(store)

	// -------------------------------------------------------------------------
	// Settlement engine

	bus := events.NewBus()
	bus.Subscribe(func(ctx context.Context, e events.Event) {
		node.Log(ctx, "Event %s : record %d", e.Type, e.ID)
	})

	m := bootstrap.NewMarket(ctx, cfg, masterDB, tokens, payments, bus)

	// -------------------------------------------------------------------------
	// Owner reconciliation sweep

	sch := scheduler.Scheduler{}
	sch.ScheduleJob(ctx, scheduler.NewPeriodicProcess("owner reconciliation",
		reconciler.New(m), 5*time.Minute))

	go func() {
		if err := sch.Run(ctx); err != nil {
			node.LogError(ctx, "Scheduler stopped : %s", err)
		}
	}()

	// -------------------------------------------------------------------------
	// HTTP server

	server := http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handlers.API(m, payments, masterDB, cfg.Market.IsTest),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		node.Log(ctx, "HTTP server listening on %s", cfg.HTTP.Address)
		serverErrors <- server.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal(ctx, "Server : %s", err)

	case sig := <-osSignals:
		node.Log(ctx, "Shutting down : %v", sig)

		sch.Stop(ctx)

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			node.LogError(ctx, "Graceful shutdown did not complete : %s", err)
			if err := server.Close(); err != nil {
				logger.Fatal(ctx, "Failed to stop server : %s", err)
			}
		}
	}
}
