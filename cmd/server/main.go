// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"beatvault/internal/catalog"
	"beatvault/internal/events"
	"beatvault/internal/fulfillment/handler"
	"beatvault/internal/fulfillment/metrics"
	"beatvault/internal/fulfillment/ports"
	"beatvault/internal/fulfillment/service"
	"beatvault/internal/ledger"
	"beatvault/internal/packaging"
	"beatvault/internal/payments"
	"beatvault/internal/platform/config"
	"beatvault/internal/platform/httpserver"
	"beatvault/internal/platform/logger"
	"beatvault/internal/platform/postgres"
	"beatvault/internal/platform/redis"
	"beatvault/internal/profile"
	"beatvault/internal/sessiontoken"
	"beatvault/internal/storagegw"
	httptransport "beatvault/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	httpClient := &http.Client{Timeout: 30 * time.Second}

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		catalogStore ports.Catalog
		ledgerStore  ports.Ledger
	)
	if db != nil {
		if err := ledger.EnsureSchema(context.Background(), db); err != nil {
			log.Error("ledger schema migration failed", "error", err)
			os.Exit(1)
		}
		catalogStore = catalog.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgresStore(db)
		log.Info("using postgres-backed catalog and ledger")
	} else {
		catalogStore = catalog.NewInMemoryStore()
		ledgerStore = ledger.NewInMemoryStore()
		log.Warn("POSTGRES_DSN not set, using in-memory catalog and ledger")
	}

	rdb, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var counter ports.ProfileCounter
	if rdb != nil {
		counter = profile.NewRedisCounter(rdb.Client)
		defer rdb.Close()
	} else {
		counter = profile.NewInMemoryCounter()
		log.Warn("REDIS_URL not set, purchase counts are process-local")
	}

	var publisher ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka client init failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
	} else {
		publisher = events.NoopPublisher{}
		log.Warn("KAFKA_BROKERS not set, purchase events disabled")
	}

	artifacts := storagegw.New(storagegw.Config{
		UploadBaseURL: cfg.Storage.UploadBaseURL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Bucket:        cfg.Storage.Bucket,
		SigningKeyID:  cfg.Storage.SigningKeyID,
		SigningKey:    []byte(cfg.Storage.SigningKey),
	}, httpClient)

	svc := service.New(service.Deps{
		Gateway: payments.NewClient(cfg.Payments.BaseURL, cfg.Payments.SecretKey, httpClient),
		Catalog: catalogStore,
		Packer:  packaging.New(httpClient, "licensing@beatvault.dev"),
		Store:   artifacts,
		Ledger:  ledgerStore,
		Profile: counter,
		Events:  publisher,
		Metrics: metrics.New(prometheus.DefaultRegisterer),
		Logger:  log,
		URLTTL:  cfg.Storage.SignedURLTTL,
	})

	tokens := sessiontoken.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	router := httptransport.NewRouter(
		handler.New(svc, log),
		sessiontoken.NewMiddlewareAdapter(tokens),
		log,
	)

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("starting beatvault", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
