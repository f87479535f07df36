// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/engagesphere-dashboard/internal/cache"
	"github.com/unclebandit/engagesphere-dashboard/internal/campaignapi"
	"github.com/unclebandit/engagesphere-dashboard/internal/config"
	"github.com/unclebandit/engagesphere-dashboard/internal/handler"
	"github.com/unclebandit/engagesphere-dashboard/internal/logging"
	"github.com/unclebandit/engagesphere-dashboard/internal/metrics"
	"github.com/unclebandit/engagesphere-dashboard/internal/queue"
	"github.com/unclebandit/engagesphere-dashboard/internal/service"
	"github.com/unclebandit/engagesphere-dashboard/internal/tips"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("dashboard stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	queryCache, closeCache := newCache(cfg, logger)
	defer closeCache()

	closeQueue, err := subscribeCampaignEvents(cfg, queryCache, logger)
	if err != nil {
		return err
	}
	defer closeQueue()

	model := newTipModel(ctx, cfg, logger)

	campaignService := &service.CampaignService{
		API:      campaignapi.New(cfg.APIBaseURL(), cfg.HTTPTimeout, logger.Named("campaignapi"), m),
		Cache:    queryCache,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger.Named("service"),
		Metrics:  m,
	}
	campaignHandler := handler.NewCampaignHandler(campaignService, tips.NewFlow(model, logger.Named("tips"), m), logger.Named("http"))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           campaignHandler.Routes(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dashboard running", zap.String("addr", cfg.ListenAddr), zap.String("campaign_api", cfg.APIBaseURL()))
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

func newCache(cfg *config.Config, logger *zap.Logger) (cache.QueryCache, func()) {
	if cfg.CacheBackend == "redis" {
		logger.Info("using redis query cache", zap.String("addr", cfg.RedisAddr))
		rc := cache.NewRedisCache(cfg.RedisAddr)
		return rc, func() { rc.Close() }
	}
	return cache.NewMemoryCache(), func() {}
}

// subscribeCampaignEvents keeps cached campaigns fresh when the campaign
// service announces changes. Only a broker can carry those events here.
func subscribeCampaignEvents(cfg *config.Config, c cache.QueryCache, logger *zap.Logger) (func(), error) {
	if cfg.QueueBackend != "amqp" {
		logger.Info("campaign events disabled; cached campaigns expire by TTL only", zap.String("queue_backend", cfg.QueueBackend))
		return func() {}, nil
	}
	q, err := queue.DialAMQP(cfg.AMQPURL, logger.Named("queue"))
	if err != nil {
		return nil, err
	}
	if err := queue.StartCampaignEventSubscriber(q, c, logger.Named("events")); err != nil {
		q.Close()
		return nil, err
	}
	return func() { q.Close() }, nil
}

func newTipModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) tips.Model {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; tip generation will return no tips")
		return tips.DisabledModel{}
	}
	gm, err := tips.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to create Gemini model; tip generation will return no tips", zap.Error(err))
		return tips.DisabledModel{}
	}
	return gm
}
