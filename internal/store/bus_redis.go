package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type changeMessage struct {
	Origin string `json:"origin"`
	Path   string `json:"path"`
}

// Notifier accepts change notifications for a path.
type Notifier interface {
	Notify(path string)
}

// RedisBus shares change notifications between service instances over Redis Pub/Sub.
type RedisBus struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

// NewRedisBus builds a bus on channel.
func NewRedisBus(client *redis.Client, channel string, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{client: client, channel: channel, origin: uuid.NewString(), logger: logger}
}

// Publish announces a local change.
func (b *RedisBus) Publish(ctx context.Context, path string) error {
	if b == nil || b.client == nil {
		return errors.New("redis bus not configured")
	}
	payload, err := json.Marshal(changeMessage{Origin: b.origin, Path: path})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run forwards remote changes to target until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context, target Notifier) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change changeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				b.logger.Warn("malformed change message", zap.Error(err))
				continue
			}
			if change.Origin == b.origin {
				continue
			}
			target.Notify(change.Path)
		}
	}
}
