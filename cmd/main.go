package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-voice-relay-service/internal/app"
	"ai-voice-relay-service/internal/config"
	"ai-voice-relay-service/internal/events"
	relayhttp "ai-voice-relay-service/internal/http"
	"ai-voice-relay-service/internal/observability"
	"ai-voice-relay-service/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatalf("application start failed: %v", err)
	}
	defer application.Shutdown()

	// Kafka publisher for call lifecycle events
	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	// Metrics and health probes on a side port
	obs := observability.NewServer(":"+cfg.Service.MetricsPort, nil)
	obs.Start()

	router := relayhttp.NewRouter(application, publisher, metrics.DefaultMetrics)
	server := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: router,
	}

	go func() {
		application.Logger.Info().Str("port", cfg.Service.Port).Msg("Voice relay server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	application.Logger.Info().Msg("Shutting down HTTP servers")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
	_ = obs.Shutdown(ctx)
}
