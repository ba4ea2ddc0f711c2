package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	casemetrics "aktivitetskrav/internal/cases/metrics"
	"aktivitetskrav/internal/cases/service"
	casestore "aktivitetskrav/internal/cases/store"
	"aktivitetskrav/internal/events"
	"aktivitetskrav/internal/platform/config"
	"aktivitetskrav/internal/platform/database"
	"aktivitetskrav/internal/platform/health"
	"aktivitetskrav/internal/platform/httpserver"
	"aktivitetskrav/internal/platform/kafka"
	"aktivitetskrav/internal/platform/kafka/consumer"
	"aktivitetskrav/internal/platform/kafka/producer"
	"aktivitetskrav/internal/platform/logger"
	platformredis "aktivitetskrav/internal/platform/redis"
	"aktivitetskrav/internal/reconcile"
	reconcilemetrics "aktivitetskrav/internal/reconcile/metrics"
	"aktivitetskrav/internal/varsel/journal"
	varselmetrics "aktivitetskrav/internal/varsel/metrics"
	"aktivitetskrav/internal/varsel/pdf"
	varselstore "aktivitetskrav/internal/varsel/store"
	"aktivitetskrav/internal/varsel/worker"
	"aktivitetskrav/migrations"
)

// main wires the dependencies and supervises the long-running parts: the
// snapshot consumer, the varsel workers, and the ops server. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.New(database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	admin, err := kafka.NewAdmin(splitBrokers(cfg), log)
	if err != nil {
		log.Error("kafka admin init failed", "error", err)
		os.Exit(1)
	}
	defer admin.Close()
	if err := admin.EnsureTopics(ctx, 1,
		cfg.CaseEventTopic, cfg.VarselTopic, cfg.VarselExpiredTopic,
	); err != nil {
		log.Error("kafka topic setup failed", "error", err)
		os.Exit(1)
	}

	kafkaProducer, err := producer.New(producer.Config{
		Brokers:         splitBrokers(cfg),
		DeliveryTimeout: 30 * time.Second,
	}, log)
	if err != nil {
		log.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	defer kafkaProducer.Close()

	eventProducer := events.New(kafkaProducer, events.Topics{
		CaseChanged:     cfg.CaseEventTopic,
		VarselPublished: cfg.VarselTopic,
		VarselExpired:   cfg.VarselExpiredTopic,
	})

	caseStore := casestore.NewPostgres(pool.DB())
	varselStore := varselstore.NewPostgres(pool.DB())
	renderer := pdf.NewClient(cfg.PdfGenURL, cfg.ClientTimeout)
	journaler := journal.NewClient(cfg.DokarkivURL, cfg.ClientTimeout)

	svc := service.New(caseStore, varselStore, renderer, eventProducer, service.NewSQLTx(pool.DB()),
		service.WithLogger(log),
		service.WithMetrics(casemetrics.New()),
		service.WithConfig(service.Config{
			SvarfristMinDays: cfg.SvarfristMinDays,
			SvarfristMaxDays: cfg.SvarfristMaxDays,
		}),
	)

	reconcileMetrics := reconcilemetrics.New()
	engine := reconcile.NewEngine(svc,
		reconcile.WithLogger(log),
		reconcile.WithMetrics(reconcileMetrics),
		reconcile.WithConfig(reconcile.Config{
			LegacyCutoff:   cfg.LegacyCutoff,
			InactivityDays: cfg.InactivityDays,
		}),
	)

	handlerOpts := []reconcile.HandlerOption{
		reconcile.WithHandlerLogger(log),
		reconcile.WithHandlerMetrics(reconcileMetrics),
	}
	if redisClient != nil {
		handlerOpts = append(handlerOpts, reconcile.WithDeduper(
			reconcile.NewRedisDeduper(redisClient.Client, 7*24*time.Hour),
		))
	}
	snapshotHandler := reconcile.NewHandler(engine, handlerOpts...)

	snapshotConsumer, err := consumer.New(consumer.Config{
		Brokers: splitBrokers(cfg),
		GroupID: cfg.KafkaGroupID,
		Topic:   cfg.SnapshotTopic,
	}, snapshotHandler.HandleSnapshot, log)
	if err != nil {
		log.Error("kafka consumer init failed", "error", err)
		os.Exit(1)
	}

	varselWorker := worker.New(varselStore, journaler, eventProducer,
		worker.WithLogger(log),
		worker.WithMetrics(varselmetrics.New()),
		worker.WithInterval(cfg.WorkerInterval),
	)

	healthHandler := health.New()
	healthHandler.RegisterCheck("database", pool.Health)
	healthHandler.RegisterCheck("kafka", func(ctx context.Context) error {
		if !kafkaProducer.Healthy(ctx) {
			return errors.New("kafka unreachable")
		}
		return nil
	})
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}
	ops := httpserver.NewOps(cfg.OpsAddr, healthHandler)

	log.Info("starting aktivitetskrav",
		"environment", cfg.Environment,
		"ops_addr", cfg.OpsAddr,
		"snapshot_topic", cfg.SnapshotTopic,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return snapshotConsumer.Run(gctx)
	})
	g.Go(func() error {
		return varselWorker.RunJournalforing(gctx)
	})
	g.Go(func() error {
		return varselWorker.RunPublishing(gctx)
	})
	g.Go(func() error {
		return varselWorker.RunExpiry(gctx)
	})
	g.Go(func() error {
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ops.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("stopped")
}

func splitBrokers(cfg config.Config) []string {
	return strings.Split(cfg.KafkaBrokers, ",")
}
