package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"medstock/m/internal/api"
	"medstock/m/internal/barcode"
	"medstock/m/internal/catalog"
	"medstock/m/internal/config"
	"medstock/m/internal/database"
	"medstock/m/internal/events"
	"medstock/m/internal/ledger"
	"medstock/m/internal/logger"
	"medstock/m/internal/metrics"
	"medstock/m/internal/migrations"
	"medstock/m/internal/pending"
	"medstock/m/internal/purchase"
	"medstock/m/internal/sale"
	"medstock/m/internal/seed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "medstock: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, log); err != nil {
		return err
	}
	if cfg.Catalog.SeedPath != "" {
		if _, err := seed.LoadMedicines(ctx, db, cfg.Catalog.SeedPath, log); err != nil {
			log.Warn("medicine catalog not seeded", zap.String("path", cfg.Catalog.SeedPath), zap.Error(err))
		}
	}

	resolver := catalog.NewResolver(db)
	if err := resolver.EnsureExists(ctx, cfg.Inventory.SentinelMedicineID); err != nil {
		return fmt.Errorf("sentinel medicine %d: %w", cfg.Inventory.SentinelMedicineID, err)
	}

	var store pending.Store
	switch cfg.Pending.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		store = pending.NewRedisStore(client, cfg.Pending.TTL)
	default:
		store = pending.NewSQLStore(db, cfg.Pending.TTL)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer kp.Close()
		publisher = kp
		log.Info("publishing inventory events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.Handler()
	}

	barcodes := barcode.NewRegistry(cfg.Inventory.SentinelMedicineID)
	led := ledger.New(ledger.OversellPolicy(cfg.Inventory.OversellPolicy))

	purchases := purchase.NewService(db, resolver, barcodes, led, store, publisher, m, log)
	sales := sale.NewService(db, barcodes, led, publisher, m, log)
	handler := api.New(purchases, sales, metricsHandler, log)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("medstock server starting", zap.String("addr", cfg.HTTP.Addr), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
