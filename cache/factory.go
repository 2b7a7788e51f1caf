package cache

import (
	"fmt"
	"log"

	"github.com/authenx/evidence-hub/cache/memory"
	"github.com/authenx/evidence-hub/cache/redis"
	"github.com/authenx/evidence-hub/cache/types"
	"github.com/authenx/evidence-hub/config"
)

// Provider 缓存提供者
type Provider = types.Cache

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = types.ErrCacheMiss

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	return types.IsCacheMiss(err)
}

// 默认内存缓存参数
var defaultMemoryConfig = memory.Config{
	NumCounters: 100000,
	MaxCost:     64 << 20, // 64MB
	BufferItems: 64,
}

// New 根据配置创建缓存提供者
//
// redis 初始化失败时回退到内存缓存，缓存层故障不阻塞启动。
func New(cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "", "memory":
		return memory.NewMemory(defaultMemoryConfig)
	case "redis":
		provider, err := redis.NewRedis(cfg.CacheRedisAddr, cfg.CacheRedisPassword, cfg.CacheRedisDB)
		if err != nil {
			log.Printf("[Cache] Failed to connect redis (%v), falling back to memory cache", err)
			return memory.NewMemory(defaultMemoryConfig)
		}
		log.Printf("[Cache] Using redis cache at %s", cfg.CacheRedisAddr)
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported cache provider type: %s", cfg.CacheType)
	}
}
