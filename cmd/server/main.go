// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/phishsim/internal/cache"
	"github.com/unclebandit/phishsim/internal/config"
	"github.com/unclebandit/phishsim/internal/db"
	"github.com/unclebandit/phishsim/internal/handler"
	"github.com/unclebandit/phishsim/internal/logger"
	"github.com/unclebandit/phishsim/internal/mailer"
	"github.com/unclebandit/phishsim/internal/metrics"
	"github.com/unclebandit/phishsim/internal/model"
	"github.com/unclebandit/phishsim/internal/queue"
	"github.com/unclebandit/phishsim/internal/repository"
	"github.com/unclebandit/phishsim/internal/service"
)

func main() {
	// Load .env
	envErr := godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.Init(ctx, cfg.Log.Level, cfg.Log.Pretty)
	if envErr != nil {
		log.Info().Msg("⚠️ No .env file found, relying on OS environment variables")
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("❌ server stopped")
	}
	log.Info().Msg("👋 server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	pool, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.Templates)
	if err != nil {
		return err
	}

	reports, closeReports, err := newReportStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeReports()

	events, closeEvents, err := newEventPublisher(cfg.AMQP)
	if err != nil {
		return err
	}
	defer closeEvents()

	metrics.Register(prometheus.DefaultRegisterer)

	campaignRepo := repository.NewCampaignRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	campaignService := &service.CampaignService{
		CampaignRepo:  campaignRepo,
		ResultRepo:    resultRepo,
		Composer:      service.NewComposer(catalog, cfg.Server.TrimmedBaseURL(), cfg.SMTP.From),
		Mailer:        mailer.NewSMTPMailer(cfg.SMTP),
		Reports:       reports,
		NewTrackingID: service.NewTrackingID,
	}
	trackingService := &service.TrackingService{
		ResultRepo: resultRepo,
		Events:     events,
		Topic:      cfg.AMQP.Queue,
	}

	router := handler.NewRouter(handler.Routes{
		Campaigns: handler.NewCampaignHandler(campaignService, catalog),
		Tracking:  handler.NewTrackingHandler(trackingService),
		Health:    &handler.HealthHandler{DB: pool},
		Pool:      pool,
		Gatherer:  prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("base_url", cfg.Server.BaseURL).Msg("🚀 Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadCatalog(cfg config.TemplatesConfig) (*service.TemplateCatalog, error) {
	if cfg.Dir == "" {
		return service.DefaultTemplateCatalog()
	}
	return service.NewTemplateCatalog(cfg.Dir)
}

// newReportStore prefers Redis so reports survive restarts and are shared
// between instances; without it reports live in process memory.
func newReportStore(ctx context.Context, cfg config.RedisConfig) (cache.ReportStore, func(), error) {
	if !cfg.Enabled() {
		log.Info().Msg("REDIS_ADDR not set, keeping dispatch reports in memory")
		return cache.NewMemoryReportStore(cfg.TTL()), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Address).Msg("✅ Connected to Redis")
	return cache.NewRedisReportStore(rdb, cfg.TTL()), func() { _ = rdb.Close() }, nil
}

// newEventPublisher publishes to RabbitMQ when configured. Otherwise events
// go to an in-process queue whose only subscriber writes the audit log.
func newEventPublisher(cfg config.AMQPConfig) (queue.Publisher, func(), error) {
	if cfg.Enabled() {
		pub, err := queue.DialAMQP(cfg.URL, cfg.Queue)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("queue", cfg.Queue).Msg("✅ Connected to RabbitMQ")
		return pub, func() { _ = pub.Close() }, nil
	}

	q := queue.NewInMemoryQueue()
	sink := service.AuditLogSink{}
	err := q.Subscribe(cfg.Queue, func(payload any) error {
		evt, ok := payload.(model.TrackingEvent)
		if !ok {
			return nil
		}
		return sink.Record(context.Background(), evt)
	})
	if err != nil {
		return nil, nil, err
	}
	return q, q.Wait, nil
}
