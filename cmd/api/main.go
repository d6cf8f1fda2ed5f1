package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/duomind/duomind/internal/adapters/http"
	"github.com/duomind/duomind/internal/bootstrap"
	"github.com/duomind/duomind/internal/config"
	"github.com/duomind/duomind/internal/observability/logging"
	"github.com/duomind/duomind/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	// Indexing workers write chunks elsewhere; the broadcast keeps this
	// process's lexical index in step without a restart.
	go func() {
		if err := app.Queue.SubscribeDocumentUpdated(ctx, app.Sync.Reconcile); err != nil {
			logger.Error("document update subscription stopped", "error", err)
		}
	}()

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(
		"api",
		app.Ingest,
		app.Remove,
		app.Reader,
		app.Retriever,
		app.QA,
		serverMetrics,
		httpadapter.TrafficOptions{
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			MaxInFlight:    cfg.MaxInFlightRequests,
			QueueTimeout:   time.Duration(cfg.QueueTimeoutMS) * time.Millisecond,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
