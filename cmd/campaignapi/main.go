// cmd/campaignapi/main.go
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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/engagesphere-dashboard/internal/config"
	"github.com/unclebandit/engagesphere-dashboard/internal/controller"
	"github.com/unclebandit/engagesphere-dashboard/internal/db"
	"github.com/unclebandit/engagesphere-dashboard/internal/logging"
	"github.com/unclebandit/engagesphere-dashboard/internal/queue"
	"github.com/unclebandit/engagesphere-dashboard/internal/repository"
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
		logger.Fatal("campaign api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	conn, err := db.Open(ctx, cfg.DB, logger.Named("db"))
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	q, closeQueue, err := newQueue(cfg, logger.Named("queue"))
	if err != nil {
		return err
	}
	defer closeQueue()

	campaignController := &controller.CampaignController{
		Repo:       &repository.CampaignRepository{DB: conn},
		Deliveries: &repository.DeliveryRepository{DB: conn},
		Queue:      q,
		Logger:     logger.Named("controller"),
	}

	srv := &http.Server{
		Addr:              cfg.APIListenAddr,
		Handler:           campaignController.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("campaign api running", zap.String("addr", cfg.APIListenAddr))
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

// newQueue returns the event queue for the configured backend. In-process
// events get an audit subscriber so every publish has a consumer.
func newQueue(cfg *config.Config, logger *zap.Logger) (queue.Queue, func(), error) {
	if cfg.QueueBackend == "amqp" {
		aq, err := queue.DialAMQP(cfg.AMQPURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return aq, func() { aq.Close() }, nil
	}
	mq := queue.NewInMemoryQueue(logger)
	if err := queue.StartCampaignAuditSubscriber(mq, logger); err != nil {
		return nil, nil, err
	}
	return mq, func() {}, nil
}
