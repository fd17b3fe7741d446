package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CachedRepository puts a Redis read-through cache in front of Get.
// Posts never change after creation, so a cached entry only goes stale
// when the post is deleted, and Delete evicts it.
type CachedRepository struct {
	Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Repository = (*CachedRepository)(nil)

// NewCachedRepository wraps inner. Keys are prefix + post id.
func NewCachedRepository(inner Repository, client *redis.Client, prefix string, ttl time.Duration) *CachedRepository {
	return &CachedRepository{Repository: inner, client: client, prefix: prefix, ttl: ttl}
}

func (c *CachedRepository) key(id string) string { return c.prefix + id }

func (c *CachedRepository) Get(ctx context.Context, id string) (*post.Post, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var p post.Post
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			return &p, nil
		}
		logger.Warnf("post cache: dropping undecodable entry %s", c.key(id))
		_ = c.client.Del(ctx, c.key(id)).Err()
	case !errors.Is(err, redis.Nil):
		// a cache outage must not fail reads
		logger.Warnf("post cache: get %s: %v", c.key(id), err)
	}

	p, err := c.Repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, jerr := json.Marshal(p); jerr == nil {
		if serr := c.client.Set(ctx, c.key(id), b, c.ttl).Err(); serr != nil {
			logger.Warnf("post cache: set %s: %v", c.key(id), serr)
		}
	}
	return p, nil
}

func (c *CachedRepository) Delete(ctx context.Context, id string) error {
	if err := c.Repository.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		logger.Warnf("post cache: evict %s: %v", c.key(id), err)
	}
	return nil
}
