package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-genius/internal/api/http"
	"github.com/spec-kit/ticket-genius/internal/api/http/handlers"
	"github.com/spec-kit/ticket-genius/internal/config"
	"github.com/spec-kit/ticket-genius/internal/events"
	"github.com/spec-kit/ticket-genius/internal/llm"
	"github.com/spec-kit/ticket-genius/internal/observability"
	"github.com/spec-kit/ticket-genius/internal/persistence"
	"github.com/spec-kit/ticket-genius/internal/repository"
	"github.com/spec-kit/ticket-genius/internal/service"
	"github.com/spec-kit/ticket-genius/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	kv, err := persistence.Open(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer kv.Close()
	store := repository.NewTicketStore(kv, cfg.Storage.Key)

	var provider llm.Provider
	if cfg.LLM.Enabled() {
		provider = llm.NewGemini(&http.Client{Timeout: cfg.LLM.Timeout() + 5*time.Second}, cfg.LLM.BaseURL, cfg.LLM.APIKey)
	} else {
		logger.Warn("LLM_API_KEY not set; suggestions and summaries will fall back")
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	activityService := service.NewActivityService(dispatcher, logger, service.DefaultActivityLimit)
	worker.StartActivityWorker(activityService)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:        store,
		Suggester:    service.NewSuggestionGateway(provider, cfg.LLM, logger, metrics),
		Summarizer:   service.NewSummaryGateway(provider, cfg.LLM, logger, metrics),
		Dispatcher:   dispatcher,
		Logger:       logger,
		SeedDemoData: cfg.Seed.Enabled,
	})
	if _, err := ticketService.Bootstrap(ctx); err != nil {
		logger.Fatal("failed to seed tickets", zap.Error(err))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{cfg.Storage.Backend: kv}),
		Tickets:  handlers.NewTicketsHandler(ticketService),
		Insights: handlers.NewInsightsHandler(ticketService, activityService),
		Gatherer: registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
