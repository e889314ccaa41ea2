// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"internmatch-workers/internal/common/database"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/models"
)

const candidateCacheKeyPrefix = "cand:profile:"

// CandidateReader is the lookup the cache wraps.
type CandidateReader interface {
	CandidateByID(ctx context.Context, id string) (*models.CandidateProfile, error)
}

// CandidateCache is a read-through Redis cache over candidate profiles. A
// cache outage falls back to the source; it never fails a read on its own.
type CandidateCache struct {
	source CandidateReader
	redis  *database.RedisClient
	ttl    time.Duration
	log    logger.Logger
}

func NewCandidateCache(source CandidateReader, redisClient *database.RedisClient, ttl time.Duration, log logger.Logger) *CandidateCache {
	return &CandidateCache{source: source, redis: redisClient, ttl: ttl, log: log}
}

func (c *CandidateCache) CandidateByID(ctx context.Context, id string) (*models.CandidateProfile, error) {
	key := candidateCacheKey(id)

	cached, err := c.redis.Get(ctx, key)
	if err == nil {
		var profile models.CandidateProfile
		if jsonErr := json.Unmarshal([]byte(cached), &profile); jsonErr == nil {
			return &profile, nil
		}
		c.log.Warn("Discarding malformed cached profile", map[string]interface{}{
			"candidateId": id,
		})
	} else if err != redis.Nil {
		c.log.Warn("Profile cache read failed, going to source", map[string]interface{}{
			"candidateId": id,
			"error":       err.Error(),
		})
	}

	profile, err := c.source.CandidateByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc, jsonErr := json.Marshal(profile); jsonErr == nil {
		if setErr := c.redis.Set(ctx, key, string(doc), c.ttl); setErr != nil {
			c.log.Warn("Could not populate profile cache", map[string]interface{}{
				"candidateId": id,
				"error":       setErr.Error(),
			})
		}
	}
	return profile, nil
}

// Invalidate drops the cached profile, e.g. after an analytics update.
func (c *CandidateCache) Invalidate(ctx context.Context, id string) {
	if err := c.redis.Del(ctx, candidateCacheKey(id)); err != nil {
		c.log.Warn("Could not invalidate cached profile", map[string]interface{}{
			"candidateId": id,
			"error":       err.Error(),
		})
	}
}

func candidateCacheKey(id string) string {
	return fmt.Sprintf("%s%s", candidateCacheKeyPrefix, id)
}
