package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
)

// Subscription is one open realtime channel scoped to a single student's
// point updates. Events arrive in publish order; the channel closes when
// the subscription is released or the transport drops.
type Subscription interface {
	Events() <-chan models.StudentPointEvent
	// Close releases the channel. Idempotent.
	Close() error
}

// Broker publishes and subscribes to student point change notifications.
type Broker interface {
	PublishStudentPoint(ctx context.Context, event models.StudentPointEvent) error
	SubscribeStudentPoints(ctx context.Context, studentID int64) (Subscription, error)
}

// studentChannel names the per-student pub/sub channel.
func studentChannel(studentID int64) string {
	return fmt.Sprintf("axis:student_points:%d", studentID)
}

// RedisBroker is the production Broker over Redis pub/sub.
type RedisBroker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBroker constructs the broker.
func NewRedisBroker(client *redis.Client, logger *zap.Logger) *RedisBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{client: client, logger: logger}
}

// PublishStudentPoint fans the post-update row image out to the student's
// channel.
func (b *RedisBroker) PublishStudentPoint(ctx context.Context, event models.StudentPointEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal student point event: %w", err)
	}
	if err := b.client.Publish(ctx, studentChannel(event.StudentID), payload).Err(); err != nil {
		return fmt.Errorf("publish student point event: %w", err)
	}
	return nil
}

// SubscribeStudentPoints opens a channel filtered to one student.
func (b *RedisBroker) SubscribeStudentPoints(ctx context.Context, studentID int64) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, studentChannel(studentID))

	// Force the SUBSCRIBE round trip so failures surface here instead of
	// as a silently dead channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe student points: %w", err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan models.StudentPointEvent, 16),
	}
	go sub.pump(b.logger)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan models.StudentPointEvent
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan models.StudentPointEvent {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}

// pump forwards raw messages as decoded events in arrival order. It exits
// when the pubsub channel closes, closing the event channel behind it.
func (s *redisSubscription) pump(logger *zap.Logger) {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var event models.StudentPointEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("dropping malformed student point event", zap.Error(err))
			continue
		}
		s.events <- event
	}
}
