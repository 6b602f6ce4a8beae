package source

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
	"github.com/okian/radar/pkg/option"
)

// Scene cache lookup outcomes.
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// RedisSceneCache is a read-through cache in front of a SceneAdapter.
// Redis failures are logged and fall through to the upstream; only found
// values are cached.
type RedisSceneCache struct {
	next   SceneAdapter
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	log    logger.Logger
}

// NewRedisSceneCache wraps next with a cache stored in rdb for ttl.
func NewRedisSceneCache(next SceneAdapter, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *RedisSceneCache {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisSceneCache{next: next, rdb: rdb, ttl: ttl, prefix: "radar:scene:hotness:", log: log}
}

// SceneHotness implements SceneAdapter.
func (c *RedisSceneCache) SceneHotness(ctx context.Context, sceneID string) (option.Option[float64], error) {
	key := c.prefix + sceneID

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if v, perr := strconv.ParseFloat(val, 64); perr == nil {
			metrics.RecordSceneCache(cacheHit)
			return option.Some(v), nil
		}
		metrics.RecordSceneCache(cacheError)
		c.log.Warn(ctx, "discarding unparsable cached scene hotness", logger.String("scene_id", sceneID))
	case errors.Is(err, redis.Nil):
		metrics.RecordSceneCache(cacheMiss)
	default:
		metrics.RecordSceneCache(cacheError)
		c.log.Warn(ctx, "scene cache read failed", logger.String("scene_id", sceneID), logger.Error(err))
	}

	out, err := c.next.SceneHotness(ctx, sceneID)
	if err != nil {
		return out, err
	}
	if v, ok := out.Get(); ok {
		if err := c.rdb.Set(ctx, key, strconv.FormatFloat(v, 'f', -1, 64), c.ttl).Err(); err != nil {
			c.log.Warn(ctx, "scene cache write failed", logger.String("scene_id", sceneID), logger.Error(err))
		}
	}
	return out, nil
}
