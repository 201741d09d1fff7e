package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"qrmenu/config"
	httpapi "qrmenu/order-svc/internal/api/http"
	"qrmenu/order-svc/internal/live"
	"qrmenu/order-svc/internal/service"
	"qrmenu/order-svc/internal/storage"
	"qrmenu/session"
)

type stores interface {
	service.OrderRepository
	service.QRCodeRepository
	service.ProfileStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo stores
	var blobs service.BlobStore
	var blobReader service.BlobReader

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db := config.MustInitPostgres(cfg.Database)
		defer db.Close()

		pg := storage.NewPostgresRepository(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to ensure schema:", err)
		}
		repo = pg

		if cfg.BlobDriver == config.BlobDriverPostgres {
			pgBlobs := storage.NewPostgresBlobStore(db, "")
			blobs, blobReader = pgBlobs, pgBlobs
		}
	default:
		repo = storage.NewMemoryStore()
	}

	uploadDir := ""
	if blobs == nil {
		blobs = storage.NewDiskBlobStore(cfg.UploadDir, "")
		uploadDir = cfg.UploadDir
	}

	hub := live.NewHub(repo)
	// local subscribers are notified even when the redis publish fails
	publishers := service.FanOut{live.LocalBackplane{Hub: hub}}
	var scans service.ScanPublisher

	if cfg.Backplane == config.BackplaneRedis {
		rdb := config.MustInitRedis(cfg.Redis)
		defer rdb.Close()

		backplane := storage.NewRedisBackplane(rdb)
		go backplane.Serve(ctx, hub)
		publishers = append(publishers, backplane)
	}

	if cfg.KafkaBroker != "" {
		ordersWriter := config.NewKafkaWriter(cfg.KafkaBroker, config.TopicOrderEvents)
		defer ordersWriter.Close()
		scansWriter := config.NewKafkaWriter(cfg.KafkaBroker, config.TopicScanEvents)
		defer scansWriter.Close()

		kafkaPublisher := storage.NewKafkaPublisher(ordersWriter, scansWriter)
		publishers = append(publishers, kafkaPublisher)
		scans = kafkaPublisher
	}

	orders := service.NewOrderService(repo, publishers, cfg.PublicOrigin)
	registry := service.NewQRRegistry(repo, blobs, service.NewPNGRenderer(), repo, scans, cfg.PublicOrigin)
	profiles := service.NewProfileService(repo, blobs)

	handler := httpapi.NewHandler(orders, registry, profiles, hub, session.NewProvider(cfg.JWTSecret))
	handler.Blobs = blobReader

	httpapi.StartServer(cfg.HTTPAddr, httpapi.NewRouter(handler, uploadDir))
}
