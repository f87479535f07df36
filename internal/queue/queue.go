package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/engagesphere-dashboard/internal/cache"
	"github.com/unclebandit/engagesphere-dashboard/internal/logging"
)

const TopicCampaignEvents = "campaign_events"

type EventType string

const (
	EventCampaignCreated EventType = "campaign.created"
	EventCampaignUpdated EventType = "campaign.updated"
	EventCampaignDeleted EventType = "campaign.deleted"
)

// Event announces a change to a campaign owned by the campaign service.
type Event struct {
	Type       EventType `json:"type"`
	CampaignID string    `json:"campaignId"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Handler func(Event) error

// Queue interface
type Queue interface {
	Publish(topic string, evt Event) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue delivers events to subscribers in-process, retrying failed handlers.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]Handler
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Logger:     logging.Resolve(logger),
	}
}

// job wraps an event with retry info
type job struct {
	evt        Event
	retryCount int
}

// Publish sends an event to all subscribers
func (q *InMemoryQueue) Publish(topic string, evt Event) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		go q.processJob(handler, job{evt: evt})
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, j job) {
	logger := logging.Resolve(q.Logger)
	for {
		err := handler(j.evt)
		if err == nil {
			logger.Debug("event processed", zap.String("type", string(j.evt.Type)), zap.String("campaign_id", j.evt.CampaignID))
			return
		}

		j.retryCount++
		logger.Warn("event handler failed",
			zap.Int("attempt", j.retryCount),
			zap.Int("max_retries", q.MaxRetries),
			zap.String("campaign_id", j.evt.CampaignID),
			zap.Error(err),
		)
		if j.retryCount > q.MaxRetries {
			logger.Error("event permanently failed", zap.String("campaign_id", j.evt.CampaignID), zap.Int("attempts", j.retryCount))
			return
		}

		// Linear backoff before retry
		time.Sleep(time.Duration(j.retryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartCampaignEventSubscriber drops the cached copy of a campaign whenever
// the campaign service reports it changed or disappeared.
func StartCampaignEventSubscriber(q Queue, c cache.QueryCache, logger *zap.Logger) error {
	logger = logging.Resolve(logger)
	err := q.Subscribe(TopicCampaignEvents, func(evt Event) error {
		if evt.CampaignID == "" {
			logger.Warn("campaign event without id", zap.String("type", string(evt.Type)))
			return nil
		}
		switch evt.Type {
		case EventCampaignUpdated, EventCampaignDeleted:
			if _, err := c.Invalidate(context.Background(), cache.CampaignKey(evt.CampaignID)); err != nil {
				return err
			}
			logger.Info("invalidated cached campaign", zap.String("type", string(evt.Type)), zap.String("campaign_id", evt.CampaignID))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicCampaignEvents, err)
	}
	return nil
}

// StartCampaignAuditSubscriber records every campaign event in the log. The
// campaign api runs it when events stay in-process so publishes always land.
func StartCampaignAuditSubscriber(q Queue, logger *zap.Logger) error {
	logger = logging.Resolve(logger)
	err := q.Subscribe(TopicCampaignEvents, func(evt Event) error {
		logger.Info("campaign event",
			zap.String("type", string(evt.Type)),
			zap.String("campaign_id", evt.CampaignID),
			zap.Time("occurred_at", evt.OccurredAt),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicCampaignEvents, err)
	}
	return nil
}
