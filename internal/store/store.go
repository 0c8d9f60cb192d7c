// 包 store：PostgreSQL 使用统计（按接口累计与按日计数）
package store

import (
	"context"
	"database/sql"
	"fmt"

	"geo-api/internal/logger"
)

// Store：统计读写入口；db 为空时所有操作为空操作
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB { return s.db }

// IncrStats：成功响应后递增接口累计与当日计数
// 约束：统计失败只记日志，不影响响应
func (s *Store) IncrStats(ctx context.Context, endpoint string) error {
	if s == nil || s.db == nil || endpoint == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO _geo_stats_total(endpoint, total_queries) VALUES($1, 1)
        ON CONFLICT (endpoint) DO UPDATE SET total_queries=_geo_stats_total.total_queries+1`, endpoint); err != nil {
		logger.L().Warn("stats_incr_fail", "endpoint", endpoint, "err", err)
		return fmt.Errorf("store: incr total: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO _geo_stats_daily(day, endpoint, queries) VALUES(current_date, $1, 1)
        ON CONFLICT (day, endpoint) DO UPDATE SET queries=_geo_stats_daily.queries+1`, endpoint); err != nil {
		logger.L().Warn("stats_incr_fail", "endpoint", endpoint, "err", err)
		return fmt.Errorf("store: incr daily: %w", err)
	}
	logger.L().Debug("stats_incr", "endpoint", endpoint)
	return nil
}

// Totals：单个接口的累计与当日查询次数
type Totals struct {
	Endpoint string `json:"endpoint"`
	Total    int64  `json:"total"`
	Today    int64  `json:"today"`
}

// GetTotals：全部接口的统计，按接口名排序；当日无记录时 Today 为 0
func (s *Store) GetTotals(ctx context.Context) ([]Totals, error) {
	if s == nil || s.db == nil {
		return []Totals{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT t.endpoint, t.total_queries, COALESCE(d.queries, 0)
        FROM _geo_stats_total t
        LEFT JOIN _geo_stats_daily d ON d.endpoint = t.endpoint AND d.day = current_date
        ORDER BY t.endpoint`)
	if err != nil {
		return nil, fmt.Errorf("store: totals: %w", err)
	}
	defer rows.Close()
	out := []Totals{}
	for rows.Next() {
		var t Totals
		if err := rows.Scan(&t.Endpoint, &t.Total, &t.Today); err != nil {
			return nil, fmt.Errorf("store: scan totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
