package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LiveChannel is the pub/sub channel a connected account listens on.
func LiveChannel(accountID uint) string {
	return fmt.Sprintf("account_notify:%d", accountID)
}

// StatusEvent is pushed to a candidate's open websocket when an employer
// changes one of their applications.
type StatusEvent struct {
	Type          string    `json:"type"`
	ApplicationID uint      `json:"application_id"`
	ListingID     uint      `json:"listing_id"`
	JobTitle      string    `json:"job_title"`
	Status        string    `json:"status"`
	StatusLabel   string    `json:"status_label"`
	Message       string    `json:"message"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher pushes live events to connected accounts.
type Publisher interface {
	PublishStatus(ctx context.Context, accountID uint, ev StatusEvent) error
}

// publishTimeout 限制单次推送耗时；推送是尽力而为，不能拖住状态更新请求。
const publishTimeout = 2 * time.Second

// RedisPublisher fans events out through redis pub/sub so any API replica
// holding the socket can forward them.
type RedisPublisher struct {
	client  redis.UniversalClient
	timeout time.Duration
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client, timeout: publishTimeout}
}

func (p *RedisPublisher) PublishStatus(ctx context.Context, accountID uint, ev StatusEvent) error {
	if ev.Type == "" {
		ev.Type = "application_status"
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.Publish(ctx, LiveChannel(accountID), data).Err()
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) PublishStatus(context.Context, uint, StatusEvent) error { return nil }
