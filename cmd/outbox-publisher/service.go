package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/zaika-foods/zaika-backend/pkg/config"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
	"github.com/zaika-foods/zaika-backend/pkg/metrics"
)

const (
	jobName               = "outbox_publish"
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type outboxRepository interface {
	FetchPublishable(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type pubSubClient interface {
	Ping(ctx context.Context) error
	OrdersPublisher() *gcppubsub.Publisher
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Repository outboxRepository
	PubSub     pubSubClient
	Metrics    *metrics.JobMetrics

	// Publisher overrides the Pub/Sub topic publisher, used by tests.
	Publisher publisher
}

// Service drains outbox_events into the order event topic. Rows stay in
// Postgres until the publish is acknowledged, so a crash re-sends rather
// than drops.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	repo         outboxRepository
	pubsub       pubSubClient
	metrics      *metrics.JobMetrics
	pub          publisher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.PubSub == nil && params.Publisher == nil {
		return nil, errors.New("pubsub client is required")
	}

	pub := params.Publisher
	if pub == nil {
		inner := params.PubSub.OrdersPublisher()
		if inner == nil {
			return nil, errors.New("orders topic publisher unavailable")
		}
		pub = gcpPublisher{inner: inner}
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		repo:         params.Repository,
		pubsub:       params.PubSub,
		metrics:      params.Metrics,
		pub:          pub,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls until the context is cancelled. Batch errors back off with
// jitter instead of crashing the worker.
func (s *Service) Run(ctx context.Context) error {
	if s.pubsub != nil {
		if err := s.pubsub.Ping(ctx); err != nil {
			return fmt.Errorf("pubsub ping failed: %w", err)
		}
	}

	backoff := s.pollInterval
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff)
		} else {
			backoff = s.pollInterval
		}

		if processed > 0 && err == nil {
			// Drain immediately while there is work queued.
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter()):
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (int, error) {
	start := time.Now()
	events, err := s.repo.FetchPublishable(s.batchSize, s.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := 0
	var errs error
	for i := range events {
		if err := s.publishOne(ctx, &events[i]); err != nil {
			s.metrics.IncFailure(jobName)
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"event_id":   events[i].ID.String(),
				"event_type": string(events[i].EventType),
				"attempts":   events[i].AttemptCount + 1,
			})
			s.logg.Error(logCtx, "outbox event publish failed", err)
			if markErr := s.repo.MarkFailed(events[i].ID, err); markErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("mark outbox event failed: %w", markErr))
			}
			continue
		}

		if err := s.repo.MarkPublished(events[i].ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark outbox event published: %w", err))
			continue
		}
		s.metrics.IncSuccess(jobName)
		published++
	}

	s.metrics.ObserveDuration(jobName, time.Since(start))
	return published, errs
}

func (s *Service) publishOne(ctx context.Context, event *models.OutboxEvent) error {
	pubCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := s.pub.Publish(pubCtx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
		},
	})
	if result == nil {
		return errors.New("publisher returned no result")
	}

	_, err := result.Get(pubCtx)
	return err
}

func nextBackoff(current time.Duration) time.Duration {
	doubled := current * 2
	if doubled > maxBackoff {
		return maxBackoff
	}
	return doubled
}

func jitter() time.Duration {
	return time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
