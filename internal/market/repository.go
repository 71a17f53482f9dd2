package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"strategy-lab/internal/core/model"
)

// entry 单个标的的缓存项
// once 保证同一标的只向数据源请求一次，结果（包括错误）一并缓存
type entry struct {
	once   sync.Once
	series model.Series
	err    error
}

// Repository 带缓存的行情仓库
// 可被多个 goroutine 并发读取；互斥锁只保护 entries 映射，
// 不同标的的加载互不阻塞
type Repository struct {
	src    Source
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry

	fetches atomic.Int64
}

// NewRepository 创建行情仓库
func NewRepository(src Source, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		src:     src,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Get 获取标的日线，首次访问时从数据源加载
// 加载使用首个调用方的 ctx；加载失败的结果同样被缓存
func (r *Repository) Get(ctx context.Context, symbol string) (model.Series, error) {
	r.mu.Lock()
	e, ok := r.entries[symbol]
	if !ok {
		e = &entry{}
		r.entries[symbol] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		r.fetches.Add(1)
		e.series, e.err = r.src.Bars(ctx, symbol)
	})
	return e.series, e.err
}

// Fetches 累计向数据源发起的加载次数
func (r *Repository) Fetches() int64 {
	return r.fetches.Load()
}

// Cached 已缓存的标的数量
func (r *Repository) Cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// LoadOptions 截面加载参数
type LoadOptions struct {
	// Workers 并行加载的 goroutine 数量
	Workers int
	// MinBars 最少 K 线数量
	MinBars int
	// ExcludePrefixes 排除的代码前缀
	ExcludePrefixes []string
}

// LoadPanel 并行加载全部标的并构建截面数据
// 单个标的加载失败或数据不足时记录日志并跳过；ctx 取消时返回错误
func (r *Repository) LoadPanel(ctx context.Context, opts LoadOptions) (*model.Panel, error) {
	all, err := r.src.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取标的列表失败: %w", err)
	}
	symbols := FilterSymbols(all, opts.ExcludePrefixes)

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]model.Series, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			s, err := r.Get(gctx, sym)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				r.logger.Warn("加载行情失败，跳过该标的", zap.String("symbol", sym), zap.Error(err))
				return nil
			}
			if len(s) < opts.MinBars {
				r.logger.Debug("K 线数量不足，跳过该标的",
					zap.String("symbol", sym),
					zap.Int("bars", len(s)),
					zap.Int("min_bars", opts.MinBars))
				return nil
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("加载截面数据失败: %w", err)
	}

	data := make(map[string]model.Series, len(symbols))
	for i, sym := range symbols {
		if results[i] != nil {
			data[sym] = results[i]
		}
	}
	r.logger.Info("截面数据加载完成",
		zap.Int("symbols", len(all)),
		zap.Int("filtered", len(symbols)),
		zap.Int("loaded", len(data)))
	return model.NewPanel(data), nil
}

// Close 关闭底层数据源
func (r *Repository) Close() error {
	return r.src.Close()
}
