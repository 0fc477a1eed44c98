package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeList struct {
	key    string
	values []any
	err    error
}

func (f *fakeList) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.key = key
	f.values = append(values, f.values...)
	return redis.NewIntResult(int64(len(f.values)), nil)
}

func TestRedisQueue_Enqueue(t *testing.T) {
	list := &fakeList{}
	q := newRedisQueue(list, "")
	q.now = func() time.Time { return time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC) }
	userID := uuid.New()

	err := q.Enqueue(context.Background(), payout.Notification{
		UserID:     userID,
		Title:      "Investment matured",
		Category:   "investment",
		Content:    "Your investment in Palm Court has matured",
		ActionLink: "/dashboard/investments",
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultQueueKey, list.key)
	require.Len(t, list.values, 1)
	var msg Message
	require.NoError(t, json.Unmarshal(list.values[0].([]byte), &msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, userID, msg.UserID)
	assert.Equal(t, "Investment matured", msg.Title)
	assert.Equal(t, "/dashboard/investments", msg.ActionLink)
	assert.True(t, msg.CreatedAt.Equal(time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)))
}

func TestRedisQueue_CustomKey(t *testing.T) {
	list := &fakeList{}
	q := newRedisQueue(list, "staging:notifications")

	require.NoError(t, q.Enqueue(context.Background(), payout.Notification{UserID: uuid.New()}))
	assert.Equal(t, "staging:notifications", list.key)
}

func TestRedisQueue_RejectsMissingUser(t *testing.T) {
	list := &fakeList{}
	q := newRedisQueue(list, "")

	assert.Error(t, q.Enqueue(context.Background(), payout.Notification{Title: "x"}))
	assert.Empty(t, list.values)
}

func TestRedisQueue_PushError(t *testing.T) {
	q := newRedisQueue(&fakeList{err: errors.New("READONLY")}, "")

	err := q.Enqueue(context.Background(), payout.Notification{UserID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")
}
