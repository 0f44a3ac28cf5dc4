// Package events fans lot lifecycle events out to other systems.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/platform/obs"
	"wip-tracker-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes every event as JSON on a single pub/sub channel.
type RedisPublisher struct {
	Client  *redis.Client
	Channel string
}

var _ ports.EventPublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{Client: client, Channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev domain.LotEvent) (err error) {
	defer obs.Time(ctx, "events.redis.Publish")(&err)

	if p.Client == nil {
		return errors.New("redis publisher: client is nil")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("publish %s: marshal: %w", ev.Kind, err)
	}
	if err := p.Client.Publish(ctx, p.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s to %q: %w", ev.Kind, p.Channel, err)
	}
	return nil
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.LotEvent) error { return nil }
