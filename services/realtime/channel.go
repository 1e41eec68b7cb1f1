package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"fixhive/models"

	"github.com/go-redis/redis/v8"
)

// Channel publishes events to per-user realtime rooms. Constructed once at
// process start and injected into every component that must publish.
type Channel interface {
	Publish(ctx context.Context, room, event string, payload interface{}) error
}

// CustomerRoom addresses a customer's private room.
func CustomerRoom(id string) string { return "user:" + id }

// TechnicianRoom addresses a technician's private room.
func TechnicianRoom(id string) string { return "technician:" + id }

// RedisChannel implements Channel over redis pub/sub; a socket gateway
// subscribed to the room channels fans messages out to connected clients.
type RedisChannel struct {
	Client *redis.Client
}

func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{Client: client}
}

func (c *RedisChannel) Publish(ctx context.Context, room, event string, payload interface{}) error {
	msg := models.RealtimeEvent{Event: event, Payload: payload}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime event %s: %w", event, err)
	}
	if err := c.Client.Publish(ctx, room, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to room %s: %w", room, err)
	}
	return nil
}
