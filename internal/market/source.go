// Package market 负责加载日线行情。
// 支持 CSV 目录、SQLite / PostgreSQL 数据表与模拟数据三种来源，
// 并通过 Repository 提供按标的只加载一次的缓存与并行构建截面数据。
package market

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"strategy-lab/internal/config"
	"strategy-lab/internal/core/model"
)

var (
	// ErrNotFound 数据源中不存在该标的
	ErrNotFound = errors.New("标的不存在")
	// ErrEmptySeries 标的没有任何有效 K 线
	ErrEmptySeries = errors.New("行情序列为空")
)

// Source 日线行情数据源
// Bars 返回倒序（最新在前）且日期严格递减的序列
type Source interface {
	// Symbols 列出全部标的代码，按字典序
	Symbols(ctx context.Context) ([]string, error)
	// Bars 加载单个标的的日线序列
	Bars(ctx context.Context, symbol string) (model.Series, error)
	// Close 释放底层资源
	Close() error
}

// Open 根据配置创建数据源
func Open(ctx context.Context, cfg config.DataConfig, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Source {
	case config.SourceCSV:
		return NewCSVSource(cfg.Dir)
	case config.SourceSQLite:
		return OpenSQL(ctx, DriverSQLite, cfg.DSN, cfg.Table, cfg.ConnectRetries, logger)
	case config.SourcePostgres:
		return OpenSQL(ctx, DriverPostgres, cfg.DSN, cfg.Table, cfg.ConnectRetries, logger)
	case config.SourceMock, "":
		return NewMockSource(cfg.Mock.Symbols, cfg.Mock.Days, cfg.Mock.Seed), nil
	default:
		return nil, fmt.Errorf("未知的数据源类型: %s", cfg.Source)
	}
}
