package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"enculture-be/internal/pkg/logger"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const defaultClusterChannel = "cluster_events"

type clusterMessage struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

// RedisBus relays hub traffic between instances over Redis pub/sub. Each
// instance tags what it publishes and skips its own messages, so a user
// connected to the publishing instance is not served twice.
type RedisBus struct {
	rdb        *goredis.Client
	channel    string
	instanceID string
	logger     logger.ILogger
}

var _ Fanout = (*RedisBus)(nil)

func NewRedisBus(rdb *goredis.Client, channel string, log logger.ILogger) *RedisBus {
	if channel == "" {
		channel = defaultClusterChannel
	}
	return &RedisBus{
		rdb:        rdb,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (b *RedisBus) InstanceID() string {
	return b.instanceID
}

// Publish sends data to the other instances. Failures are logged; local
// delivery does not depend on Redis.
func (b *RedisBus) Publish(targetUserID string, data []byte) {
	raw, err := json.Marshal(clusterMessage{
		Origin:       b.instanceID,
		TargetUserID: targetUserID,
		Message:      data,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.logger.Warn("RedisBus", "Publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// StartForwarder subscribes and hands messages from other instances to hub
// until ctx is cancelled. It returns once the subscription is confirmed.
func (b *RedisBus) StartForwarder(ctx context.Context, hub *Hub) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var msg clusterMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.logger.Warn("RedisBus", "Bad cluster payload", map[string]interface{}{"error": err.Error()})
					continue
				}
				if msg.Origin == b.instanceID {
					continue
				}
				hub.deliverRemote(msg.TargetUserID, msg.Message)
			}
		}
	}()
	return nil
}
