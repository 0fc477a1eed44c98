// Package notification enqueues in-app user notifications for the delivery service.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the Redis list the delivery service pops from
const DefaultQueueKey = "notifications:queue"

// listPusher is the subset of redis.UniversalClient used by the queue
type listPusher interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// Message is the queued form of a notification
type Message struct {
	ID string `json:"id"`
	payout.Notification
	CreatedAt time.Time `json:"created_at"`
}

// RedisQueue pushes notifications as JSON onto a Redis list
type RedisQueue struct {
	client listPusher
	key    string
	now    func() time.Time
}

var _ payout.NotificationQueue = (*RedisQueue)(nil)

// NewRedisQueue creates a RedisQueue. An empty key uses DefaultQueueKey.
func NewRedisQueue(client redis.UniversalClient, key string) *RedisQueue {
	return newRedisQueue(client, key)
}

func newRedisQueue(client listPusher, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, now: time.Now}
}

// Enqueue implements payout.NotificationQueue
func (q *RedisQueue) Enqueue(ctx context.Context, n payout.Notification) error {
	if n.UserID == uuid.Nil {
		return errors.New("notification user is required")
	}
	body, err := json.Marshal(Message{
		ID:           uuid.NewString(),
		Notification: n,
		CreatedAt:    q.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, body).Err(); err != nil {
		return fmt.Errorf("failed to add notification to queue: %w", err)
	}
	return nil
}
