package cache

import (
	"fmt"
)

// NewCache 按配置创建缓存实例
func NewCache(config Config) (Cache, error) {
	switch config.Type {
	case "local", "":
		return NewLocalCache(config.Local), nil
	case "redis":
		return NewRedisCache(config.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}
