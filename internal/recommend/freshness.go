// internal/recommend/freshness.go
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"internmatch-workers/internal/common/database"
	"internmatch-workers/internal/common/logger"
)

const freshnessKeyPrefix = "recs:last:"

// Freshness tracks the per-candidate "last recommended at" marker in Redis.
// It gates expensive side effects only; scores are always recomputed. A
// cache outage degrades to "stale", never to a failed request.
type Freshness struct {
	redis *database.RedisClient
	ttl   time.Duration
	log   logger.Logger
}

func NewFreshness(redisClient *database.RedisClient, ttl time.Duration, log logger.Logger) *Freshness {
	return &Freshness{redis: redisClient, ttl: ttl, log: log}
}

// IsFresh reports whether the candidate was recommended within the TTL.
func (f *Freshness) IsFresh(ctx context.Context, candidateID string) bool {
	_, err := f.redis.Get(ctx, freshnessKey(candidateID))
	if err == redis.Nil {
		return false
	}
	if err != nil {
		f.log.Warn("Freshness lookup failed, treating as stale", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err.Error(),
		})
		return false
	}
	return true
}

// Mark records that recommendations were just generated for the candidate.
func (f *Freshness) Mark(ctx context.Context, candidateID string, at time.Time) {
	err := f.redis.Set(ctx, freshnessKey(candidateID), at.UTC().Format(time.RFC3339), f.ttl)
	if err != nil {
		f.log.Warn("Could not record freshness marker", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err.Error(),
		})
	}
}

func freshnessKey(candidateID string) string {
	return fmt.Sprintf("%s%s", freshnessKeyPrefix, candidateID)
}
