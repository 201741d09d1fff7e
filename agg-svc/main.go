package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	httpapi "qrmenu/agg-svc/internal/api/http"
	"qrmenu/agg-svc/internal/service"
	"qrmenu/agg-svc/internal/storage"
	"qrmenu/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.KafkaBroker == "" {
		log.Fatal("KAFKA_BROKER is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := config.MustInitRedis(cfg.Redis)
	defer rdb.Close()
	store := storage.NewStore(rdb)

	for _, topic := range []string{config.TopicOrderEvents, config.TopicScanEvents} {
		reader := config.NewKafkaReader(cfg.KafkaBroker, topic, config.StatsConsumerGroup)
		defer reader.Close()
		go service.NewConsumer(reader, store).Start(ctx)
	}

	httpapi.StartServer(cfg.StatsAddr, httpapi.NewRouter(httpapi.NewHandler(store)))
}
