package market

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"strategy-lab/internal/core/model"
	"strategy-lab/internal/util/timeutil"
)

// mockStart 模拟行情的首个交易日
const mockStart = 20230103

// MockSource 确定性模拟行情
// 同一 seed 与标的总是生成相同的序列，价格为带漂移的随机游走
type MockSource struct {
	symbols []string
	days    int
	seed    int64
}

// NewMockSource 创建模拟数据源
// 参数 n: 标的数量
// 参数 days: 每个标的的交易日数量
// 参数 seed: 随机种子
func NewMockSource(n, days int, seed int64) *MockSource {
	syms := make([]string, 0, n)
	for i := 0; i < n; i++ {
		// 每五个标的中有一个创业板代码，用于验证前缀过滤
		if i%5 == 4 {
			syms = append(syms, fmt.Sprintf("300%03d", i))
			continue
		}
		syms = append(syms, fmt.Sprintf("600%03d", i))
	}
	return &MockSource{symbols: syms, days: days, seed: seed}
}

// Symbols 模拟标的列表
func (m *MockSource) Symbols(ctx context.Context) ([]string, error) {
	return append([]string(nil), m.symbols...), nil
}

// Bars 生成单个标的的模拟日线
func (m *MockSource) Bars(ctx context.Context, symbol string) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found := false
	for _, s := range m.symbols {
		if s == symbol {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	if m.days <= 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(m.seed ^ int64(h.Sum64())))

	price := 5 + rng.Float64()*45
	vol := 0.01 + rng.Float64()*0.03
	baseVolume := 1e5 + rng.Float64()*9e5

	out := make(model.Series, m.days)
	day := timeutil.ToTime(mockStart)
	for i := 0; i < m.days; i++ {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		open := price * (1 + rng.NormFloat64()*vol*0.3)
		closePx := open * (1 + rng.NormFloat64()*vol)
		high := math.Max(open, closePx) * (1 + rng.Float64()*vol)
		low := math.Min(open, closePx) * (1 - rng.Float64()*vol)
		volume := int64(baseVolume * (0.5 + rng.Float64()))

		out[m.days-1-i] = model.Bar{
			Date:   timeutil.FromTime(day),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closePx),
			Volume: volume,
			Amount: int64(float64(volume) * closePx),
		}
		price = math.Max(closePx, 0.5)
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

// Close 模拟数据源无需释放资源
func (m *MockSource) Close() error { return nil }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
