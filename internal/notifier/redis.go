package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opensurvey/monitor/internal/common/config"
)

// RedisNotifier implements Notifier using a Redis stream. Every event is
// appended with XADD; clients follow the stream with XREAD from the tail.
type RedisNotifier struct {
	logger     *zap.Logger
	client     redis.UniversalClient
	streamName string
}

// NewRedisNotifier creates a Redis-based notifier and verifies the
// connection before returning it.
func NewRedisNotifier(logger *zap.Logger, cfg config.NotifierRedisConfig) (*RedisNotifier, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisNotifier{
		logger:     logger.Named("notifier.redis"),
		client:     client,
		streamName: cfg.Stream,
	}, nil
}

func (r *RedisNotifier) publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.streamName,
		Values: map[string]interface{}{"event": string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	r.logger.Debug("event published",
		zap.String("stream", r.streamName),
		zap.String("type", evt.Type))
	return nil
}

// PublishSettingsUpdated implements Notifier.PublishSettingsUpdated
func (r *RedisNotifier) PublishSettingsUpdated(ctx context.Context) error {
	return r.publish(ctx, Event{Type: "settings"})
}

// PublishAssignmentUpdated implements Notifier.PublishAssignmentUpdated
func (r *RedisNotifier) PublishAssignmentUpdated(ctx context.Context, assignmentID uint) error {
	return r.publish(ctx, Event{Type: "assignment", AssignmentID: assignmentID})
}

// Close implements Notifier.Close
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
