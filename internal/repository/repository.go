// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
)

// DB 数据库接口
// *database.DB 与 *sql.Tx 均满足，事务内外共用同一套查询方法。
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store 带事务能力的数据库接口
// 需要多条语句原子落库的仓储依赖该接口而非裸 DB。
type Store interface {
	DB
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Scanner 行扫描接口
// *sql.Row 与 *sql.Rows 均满足，单行与多行查询共用扫描函数。
type Scanner interface {
	Scan(dest ...interface{}) error
}

// ListFilter 列表查询过滤器
type ListFilter struct {
	Strategy string `json:"strategy,omitempty"`
	Feasible *bool  `json:"feasible,omitempty"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
	OrderBy  string `json:"order_by,omitempty"`
	OrderDir string `json:"order_dir,omitempty"` // asc/desc
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{
		Offset:   0,
		Limit:    20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// WithStrategy 设置策略过滤
func (f ListFilter) WithStrategy(strategy string) ListFilter {
	f.Strategy = strategy
	return f
}

// WithFeasible 设置可行性过滤
func (f ListFilter) WithFeasible(feasible bool) ListFilter {
	f.Feasible = &feasible
	return f
}
