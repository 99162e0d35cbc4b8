package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/mdstruct/internal/api"
	"github.com/dgallion1/mdstruct/internal/config"
	"github.com/dgallion1/mdstruct/internal/pipeline"
	"github.com/dgallion1/mdstruct/internal/sink"
	"github.com/dgallion1/mdstruct/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("opening store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	// Delivery is optional; without a renderer documents are only stored.
	var sk *sink.Client
	if cfg.DeliveryEnabled() {
		sk = sink.NewClient(cfg.RendererURL, cfg.RendererAPIKey)
	} else {
		log.Info("renderer delivery disabled")
	}

	orch := pipeline.NewOrchestrator(cfg, st, sk, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The HTTP server shuts down before the pipeline so no handler can
	// submit into a closed queue. main returns only after done closes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		orch.Stop()

		if sk != nil {
			sk.Close()
		}
		if err := st.Close(); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	log.Info("starting mdstruct", "port", cfg.Port, "db", cfg.DBPath, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	log.Info("shutdown complete")
}
