package publication

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goalkit/splash-server/domain"
)

const activeCacheKey = "splash:active"

// activeCache is an advisory redis cache in front of GetActive. Every failure
// is logged and treated as a miss; a missing redis config disables it.
type activeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newActiveCache(conf Redis) *activeCache {
	if conf.Addr == "" {
		return &activeCache{}
	}
	ttl := time.Duration(conf.TTLSec) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &activeCache{
		client: redis.NewClient(&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
		ttl: ttl,
	}
}

func (c *activeCache) get(ctx context.Context) (pub domain.Publication, ok bool) {
	if c.client == nil {
		return
	}
	data, err := c.client.Get(ctx, activeCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug("active cache get", zap.Error(err))
		}
		return
	}
	if err = json.Unmarshal(data, &pub); err != nil {
		log.Debug("active cache decode", zap.Error(err))
		return
	}
	return pub, true
}

func (c *activeCache) set(ctx context.Context, pub domain.Publication) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(pub)
	if err != nil {
		return
	}
	if err = c.client.Set(ctx, activeCacheKey, data, c.ttl).Err(); err != nil {
		log.Debug("active cache set", zap.Error(err))
	}
}

func (c *activeCache) invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, activeCacheKey).Err(); err != nil {
		log.Debug("active cache invalidate", zap.Error(err))
	}
}

func (c *activeCache) close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
