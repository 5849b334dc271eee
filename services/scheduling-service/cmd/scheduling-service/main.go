package main

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/techsched/libs/config"
	"github.com/md-rashed-zaman/techsched/libs/db"
	"github.com/md-rashed-zaman/techsched/libs/grpcx"
	"github.com/md-rashed-zaman/techsched/libs/httpx"
	"github.com/md-rashed-zaman/techsched/libs/kafkax"
	otelx "github.com/md-rashed-zaman/techsched/libs/otel"
	"github.com/md-rashed-zaman/techsched/libs/runtime"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/conflict"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/consumer"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/handlers"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/inbox"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/reminders"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/service"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/storage"
)

func main() {
	serviceName := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		panic(err)
	}
	loc, err := config.Location("TIMEZONE", "UTC")
	if err != nil {
		panic(err)
	}
	fallback, err := config.Minutes("DURATION_FALLBACK_MINUTES", 0)
	if err != nil {
		panic(err)
	}
	ratePerMinute, err := config.PositiveInt("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		panic(err)
	}
	maxAttempts, err := config.PositiveInt("OUTBOX_MAX_ATTEMPTS", 20)
	if err != nil {
		panic(err)
	}
	retention, err := config.Minutes("OUTBOX_RETENTION_MINUTES", 7*24*time.Hour)
	if err != nil {
		panic(err)
	}
	maxConns, err := config.PositiveInt("DB_MAX_CONNS", 10)
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(serviceName)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(serviceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(maxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("migration failed", "err", err)
		panic(err)
	}

	brokers := config.String("KAFKA_BROKERS", "")
	outboxRepo := outbox.NewRepository()
	store := storage.NewStore(pool, outboxRepo)

	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:     brokers,
		PollEvery:   2 * time.Second,
		BatchSize:   50,
		MaxAttempts: maxAttempts,
		Retention:   retention,
	})
	go publisher.Run(ctx)

	clock := clockwork.NewRealClock()
	notifier := buildNotifier(store, clock, logger)

	scheduler := reminders.NewScheduler(reminders.Config{
		Clock:    clock,
		Store:    storage.NewReminderJobs(store),
		Notifier: notifier,
		Logger:   logger,
		Location: loc,
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("reminder scheduler start failed", "err", err)
		panic(err)
	}
	defer scheduler.Stop()

	svc := service.New(service.Config{
		Store:     store,
		Reminders: scheduler,
		Notifier:  notifier,
		Engine:    availability.NewEngine(loc, fallback),
		Detector:  conflict.NewDetector(loc),
		Clock:     clock,
		Logger:    logger,
	})

	eventConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", serviceName),
	}, consumer.BookingHandlers(svc, logger))
	go eventConsumer.Run(ctx)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	}
	var limiter httpx.Limiter = httpx.NewMemoryRateLimiter(ratePerMinute, time.Minute)
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		limiter = httpx.NewRedisRateLimiter(rdb, ratePerMinute, time.Minute, serviceName+":rl:")
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewSchedulingHandler(svc, logger, loc).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.RateLimit(limiter, logger, true),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(10*time.Second),
	)
	handler = otelhttp.NewHandler(handler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		lis, err := net.Listen("tcp", ":"+grpcPort)
		if err != nil {
			logger.Error("grpc listen failed", "err", err)
			return
		}
		if err := grpcx.NewHealthServer(logger, serviceName).Serve(ctx, lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
