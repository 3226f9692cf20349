package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChannelNames caches resolved channel display names so repeated schedule and
// edit calls don't re-hit the Slack conversations API. A nil redis client
// disables the cache; every lookup misses.
type ChannelNames struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChannelNames(client *redis.Client, ttl time.Duration) *ChannelNames {
	return &ChannelNames{client: client, ttl: ttl}
}

func (c *ChannelNames) Get(ctx context.Context, teamID, channelID string) (string, bool) {
	if c.client == nil {
		return "", false
	}

	name, err := c.client.Get(ctx, key(teamID, channelID)).Result()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "channel name cache read failed", "error", err)
		}
		return "", false
	}
	return name, true
}

func (c *ChannelNames) Set(ctx context.Context, teamID, channelID, name string) {
	if c.client == nil {
		return
	}

	if err := c.client.Set(ctx, key(teamID, channelID), name, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "channel name cache write failed", "error", err)
	}
}

func key(teamID, channelID string) string {
	return fmt.Sprintf("channel_name:%s:%s", teamID, channelID)
}
