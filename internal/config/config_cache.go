package config

import "time"

// CacheConfig controls the Cache Layer's (C1) backend. Backend selects
// between internal/cache.NewMemoryStore (the default) and
// internal/cache.NewRedisStore.
type CacheConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend string `yaml:"backend"`

	// RedisAddr, RedisPassword, and RedisDB configure the redis.Client
	// built for NewRedisStore when Backend is "redis".
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// MaxPerNamespace, HardWall, and SweepInterval configure
	// cache.MemoryStoreOptions when Backend is "memory".
	MaxPerNamespace int           `yaml:"max_per_namespace"`
	HardWall        time.Duration `yaml:"hard_wall"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}
