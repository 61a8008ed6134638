package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"

	"github.com/scentlab/scentdex/internal/domain"
	"github.com/scentlab/scentdex/internal/metrics"
)

// Indexer is the indexing contract the consumer drives.
type Indexer interface {
	IndexPerfume(ctx context.Context, id string) error
	DeletePerfume(ctx context.Context, id string) error
}

// ConsumerConfig tunes the router's retry behaviour.
type ConsumerConfig struct {
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
	CloseTimeout         time.Duration
}

// DefaultConsumerConfig returns production retry defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		RetryMaxRetries:      5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		CloseTimeout:         30 * time.Second,
	}
}

// Consumer runs a watermill router that feeds catalogue change events into
// the indexer. Every handler is idempotent, so redelivery is safe.
type Consumer struct {
	router  *message.Router
	indexer Indexer
	log     *zap.Logger
}

// NewConsumer builds the router with recoverer, retry and poison queue
// middleware. poisonPub may be nil to disable the poison queue.
func NewConsumer(
	cfg ConsumerConfig,
	indexer Indexer,
	sub message.Subscriber,
	poisonPub message.Publisher,
	log *zap.Logger,
) (*Consumer, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)

	if poisonPub != nil {
		poison, err := middleware.PoisonQueue(poisonPub, PoisonTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue: %w", err)
		}
		router.AddMiddleware(poison)
	}

	c := &Consumer{router: router, indexer: indexer, log: log}

	router.AddConsumerHandler("perfume-created", TopicPerfumeCreated, sub,
		c.handleUpsert(TopicPerfumeCreated))
	router.AddConsumerHandler("perfume-updated", TopicPerfumeUpdated, sub,
		c.handleUpsert(TopicPerfumeUpdated))
	router.AddConsumerHandler("perfume-deleted", TopicPerfumeDeleted, sub,
		c.handleDelete)

	return c, nil
}

// Run starts the router and blocks until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.router.Run(ctx); err != nil {
		return fmt.Errorf("run router: %w", err)
	}
	return nil
}

// Running is closed once the router accepts messages.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

// Close stops the router, waiting for in-flight handlers.
func (c *Consumer) Close() error {
	if err := c.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	return nil
}

// handleUpsert reindexes the perfume named by the message. Created and
// updated events share semantics: both re-read the catalogue and replace
// the document.
func (c *Consumer) handleUpsert(topic string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		p, err := ParsePayload(msg)
		if err != nil {
			// Malformed payloads never become valid; drop, don't retry.
			metrics.EventsTotal.WithLabelValues(topic, "dropped").Inc()
			c.log.Warn("dropping malformed event",
				zap.String("topic", topic),
				zap.String("message_id", msg.UUID),
				zap.Error(err))
			return nil
		}

		if err := c.indexer.IndexPerfume(msg.Context(), p.ID); err != nil {
			if errors.Is(err, domain.ErrMappingInput) {
				metrics.EventsTotal.WithLabelValues(topic, "dropped").Inc()
				c.log.Warn("dropping unmappable perfume",
					zap.String("topic", topic),
					zap.String("perfume_id", p.ID),
					zap.Error(err))
				return nil
			}
			metrics.EventsTotal.WithLabelValues(topic, "retried").Inc()
			return err
		}

		metrics.EventsTotal.WithLabelValues(topic, "ok").Inc()
		return nil
	}
}

func (c *Consumer) handleDelete(msg *message.Message) error {
	p, err := ParsePayload(msg)
	if err != nil {
		metrics.EventsTotal.WithLabelValues(TopicPerfumeDeleted, "dropped").Inc()
		c.log.Warn("dropping malformed event",
			zap.String("topic", TopicPerfumeDeleted),
			zap.String("message_id", msg.UUID),
			zap.Error(err))
		return nil
	}

	if err := c.indexer.DeletePerfume(msg.Context(), p.ID); err != nil {
		metrics.EventsTotal.WithLabelValues(TopicPerfumeDeleted, "retried").Inc()
		return err
	}

	metrics.EventsTotal.WithLabelValues(TopicPerfumeDeleted, "ok").Inc()
	return nil
}
