package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"geo-api/internal/logger"
)

// 背景：首次运行自动创建统计表
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；缓存数据全部可从上游重建，不入库
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _geo_stats_total (
            endpoint TEXT PRIMARY KEY,
            total_queries BIGINT NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS _geo_stats_daily (
            day DATE NOT NULL,
            endpoint TEXT NOT NULL,
            queries BIGINT NOT NULL DEFAULT 0,
            PRIMARY KEY (day, endpoint)
        )`,
	`CREATE INDEX IF NOT EXISTS idx_geo_stats_daily_endpoint ON _geo_stats_daily(endpoint, day)`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
