package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/easymo/notify/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const profileCachePrefix = "profile:"

// CachedProfileRepository is a read-through cache in front of the postgres
// channel-profile lookup. The dispatcher hits this once per notification,
// and profiles change rarely, so a short TTL removes most database reads.
// Cache failures degrade to direct lookups; they never fail a dispatch.
type CachedProfileRepository struct {
	client *Client
	source domain.ProfileRepository
	ttl    time.Duration
}

// NewCachedProfileRepository wraps source with a redis cache.
func NewCachedProfileRepository(client *Client, source domain.ProfileRepository, ttl time.Duration) *CachedProfileRepository {
	return &CachedProfileRepository{client: client, source: source, ttl: ttl}
}

// GetChannelProfile returns the cached capability record, falling back to
// the underlying repository on miss.
func (c *CachedProfileRepository) GetChannelProfile(ctx context.Context, profileID uuid.UUID) (*domain.ChannelProfile, error) {
	key := profileCachePrefix + profileID.String()

	if data, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
		var p domain.ChannelProfile
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		// Corrupt cache entry, fall through to the source.
	}

	p, err := c.source.GetChannelProfile(ctx, profileID)
	if err != nil || p == nil {
		return p, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("profile_id", profileID.String()).Msg("failed to cache channel profile")
		}
	}

	return p, nil
}

// Invalidate removes the cached record for a profile, e.g. after an
// opt-out change.
func (c *CachedProfileRepository) Invalidate(ctx context.Context, profileID uuid.UUID) error {
	key := profileCachePrefix + profileID.String()
	if err := c.client.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate profile cache: %w", err)
	}
	return nil
}
