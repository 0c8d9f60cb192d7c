// 包 utils：外部连接（Redis、PostgreSQL、MongoDB）与证书工具
package utils

import (
	"github.com/redis/go-redis/v9"

	"geo-api/internal/config"
	"geo-api/internal/logger"
)

// OpenRedis：未配置主机时返回 nil（调用方回退进程内存后端）
// 约束：不在此处 Ping；缓存层本身容忍后端不可用
func OpenRedis(c config.RedisConfig) *redis.Client {
	if !c.Enabled() {
		return nil
	}
	db := c.DB
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_open", "addr", c.Addr(), "db", db)
	return redis.NewClient(&redis.Options{Addr: c.Addr(), Password: c.Pass, DB: db})
}
