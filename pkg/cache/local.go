package cache

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// localCache 进程内缓存，基于 patrickmn/go-cache
type localCache struct {
	store   *gocache.Cache
	maxSize int
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	defaultExpiration := config.DefaultExpiration
	if defaultExpiration <= 0 {
		defaultExpiration = 5 * time.Minute
	}
	cleanupInterval := config.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	return &localCache{
		store:   gocache.New(defaultExpiration, cleanupInterval),
		maxSize: config.MaxSize,
	}
}

func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return lc.store.Get(key)
}

func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if lc.maxSize > 0 && lc.store.ItemCount() >= lc.maxSize {
		if _, exists := lc.store.Get(key); !exists {
			lc.store.DeleteExpired()
			if lc.store.ItemCount() >= lc.maxSize {
				return errors.New("local cache is full")
			}
		}
	}

	if expiration <= 0 {
		expiration = gocache.DefaultExpiration
	}
	lc.store.Set(key, value, expiration)
	return nil
}

func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.store.Delete(key)
	return nil
}

func (lc *localCache) Exists(ctx context.Context, key string) bool {
	_, ok := lc.store.Get(key)
	return ok
}

func (lc *localCache) Clear(ctx context.Context) error {
	lc.store.Flush()
	return nil
}

func (lc *localCache) Close() error {
	lc.store.Flush()
	return nil
}
