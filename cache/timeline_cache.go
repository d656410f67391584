package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"frameline/logger"
	"frameline/model"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyframeTTL bounds staleness if an invalidation is ever missed.
const DefaultKeyframeTTL = 1 * time.Hour

// TimelineCache is a Redis read cache for per-track keyframe lists. It also
// implements the engine's Refresher hook: every committed store mutation
// invalidates the affected track so API readers re-fetch.
type TimelineCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTimelineCache creates a cache over the given Redis client.
func NewTimelineCache(rdb *redis.Client) *TimelineCache {
	return &TimelineCache{rdb: rdb, ttl: DefaultKeyframeTTL}
}

// KeyframesKey builds the Redis key for a track's keyframe list.
func KeyframesKey(trackID string) string {
	return fmt.Sprintf("timeline:keyframes:%s", trackID)
}

// GetKeyframes returns the cached keyframe list for a track, or
// (nil, false) on a miss. Cache errors are treated as misses.
func (c *TimelineCache) GetKeyframes(ctx context.Context, trackID string) ([]*model.Keyframe, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, KeyframesKey(trackID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("keyframe cache read failed",
				logger.String("trackId", trackID),
				logger.ErrorField(err))
		}
		return nil, false
	}
	var kfs []*model.Keyframe
	if err := json.Unmarshal([]byte(raw), &kfs); err != nil {
		logger.Warn("keyframe cache entry corrupt, dropping",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
		c.rdb.Del(ctx, KeyframesKey(trackID))
		return nil, false
	}
	return kfs, true
}

// SetKeyframes stores a track's keyframe list. Failures only cost the next
// reader a database round trip, so they are logged and swallowed.
func (c *TimelineCache) SetKeyframes(ctx context.Context, trackID string, kfs []*model.Keyframe) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(kfs)
	if err != nil {
		logger.Warn("failed to marshal keyframes for cache", logger.ErrorField(err))
		return
	}
	if err := c.rdb.Set(ctx, KeyframesKey(trackID), raw, c.ttl).Err(); err != nil {
		logger.Warn("keyframe cache write failed",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
	}
}

// RefreshKeyframes implements timeline.Refresher by dropping the cached
// list for the mutated track.
func (c *TimelineCache) RefreshKeyframes(ctx context.Context, trackID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, KeyframesKey(trackID)).Err(); err != nil {
		logger.Warn("keyframe cache invalidation failed",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
	}
}
