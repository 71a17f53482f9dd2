// Package backtest 实现单个 (选股策略, 入场规则, 退出策略) 组合的滚动回测。
// 每个历史偏移量独立执行：选股 -> 计算买入价 -> 模拟持有期 -> 汇总统计。
package backtest

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"strategy-lab/internal/config"
	"strategy-lab/internal/core/entry"
	"strategy-lab/internal/core/exit"
	"strategy-lab/internal/core/model"
	"strategy-lab/internal/core/selector"
	"strategy-lab/internal/stats/perf"
)

// Engine 回测引擎
// 引擎只读访问截面数据，可被多个 goroutine 同时使用。
type Engine struct {
	// panel 截面数据
	panel *model.Panel
	// window 偏移量模式
	window string
	// collectTrades 是否保留逐笔明细（不影响任何统计数值）
	collectTrades bool
	// logger 日志
	logger *zap.Logger
}

// Option 引擎选项
type Option func(*Engine)

// WithWindow 设置偏移量模式: config.WindowForward 或 config.WindowAfterHorizon
func WithWindow(mode string) Option {
	return func(e *Engine) { e.window = mode }
}

// WithTrades 设置是否保留逐笔明细
func WithTrades(collect bool) Option {
	return func(e *Engine) { e.collectTrades = collect }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine 创建回测引擎
// 参数 panel: 截面数据（按代码排序遍历）
func NewEngine(panel *model.Panel, opts ...Option) *Engine {
	e := &Engine{
		panel:  panel,
		window: config.WindowForward,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Panel 截面数据
func (e *Engine) Panel() *model.Panel {
	return e.panel
}

// Offsets 回测使用的决策日偏移量
// forward: 1..=backDays；after_horizon: horizon+1..=horizon+backDays
func (e *Engine) Offsets(pol exit.Policy, backDays int) []int {
	if backDays <= 0 {
		return nil
	}
	start := 1
	if e.window == config.WindowAfterHorizon {
		start = pol.Params().HorizonDays + 1
	}
	out := make([]int, backDays)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// RunSingle 在单个偏移量上回测
func (e *Engine) RunSingle(sel selector.Selector, rule entry.Rule, pol exit.Policy, offset int) perf.Result {
	return e.run(sel, rule, pol, offset, e.collectTrades)
}

// RunBacktest 滚动回测，返回各偏移量胜率的简单平均
// 每个偏移量权重相同，有数据但没有交易的偏移量胜率计为 0。
// 偏移量小于持有期时其后不足 horizon 个交易日，任何交易都无法模拟，
// 这类偏移量不计入分子和分母。
func (e *Engine) RunBacktest(sel selector.Selector, rule entry.Rule, pol exit.Policy, backDays int) float64 {
	horizon := pol.Params().HorizonDays
	var sum float64
	var n int
	for _, off := range e.Offsets(pol, backDays) {
		if off < horizon {
			continue
		}
		sum += e.run(sel, rule, pol, off, false).WinRate
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RunDetailed 滚动回测，返回所有偏移量合并后的统计（按交易数加权）
func (e *Engine) RunDetailed(sel selector.Selector, rule entry.Rule, pol exit.Policy, backDays int) perf.Result {
	offsets := e.Offsets(pol, backDays)
	results := make([]perf.Result, 0, len(offsets))
	for _, off := range offsets {
		results = append(results, e.run(sel, rule, pol, off, e.collectTrades))
	}
	return perf.Merge(results...)
}

// Recommend 基于最新交易日生成推荐标的
// 在最新交易日选股，买入价按偏移量 1 计算（即最新一根 K 线的价格）
func (e *Engine) Recommend(sel selector.Selector, rule entry.Rule, pol exit.Policy) []model.Recommendation {
	p := pol.Params()
	cands := sel.Select(e.panel, 0)
	out := make([]model.Recommendation, 0, len(cands))
	for _, sig := range entry.Signals(rule, cands, 1) {
		if !sig.Tradable() {
			continue
		}
		var prev float64
		if b, ok := sig.Series.At(1); ok {
			prev = b.Close
		}
		out = append(out, model.Recommendation{
			Symbol:        sig.Symbol,
			BuyPrice:      roundTick(sig.BuyPrice),
			TargetPrice:   roundTick(p.TargetPrice(sig.BuyPrice)),
			StopLossPrice: roundTick(p.StopPrice(sig.BuyPrice)),
			PrevClose:     prev,
		})
	}
	return out
}

// run 单个偏移量：选股 -> 买入价 -> 模拟 -> 汇总
func (e *Engine) run(sel selector.Selector, rule entry.Rule, pol exit.Policy, offset int, keepTrades bool) perf.Result {
	cands := sel.Select(e.panel, offset)
	outcomes := make([]model.TradeOutcome, 0, len(cands))
	for _, sig := range entry.Signals(rule, cands, offset) {
		if !sig.Tradable() {
			continue
		}
		out, ok := pol.Simulate(sig.Symbol, sig.Series, sig.BuyPrice, offset)
		if !ok {
			continue
		}
		outcomes = append(outcomes, out)
	}
	r := perf.FromOutcomes(outcomes, keepTrades)

	if ce := e.logger.Check(zap.DebugLevel, "偏移量回测完成"); ce != nil {
		ce.Write(
			zap.String("selector", sel.Name()),
			zap.String("signal", rule.Name()),
			zap.String("target", pol.Name()),
			zap.Int("offset", offset),
			zap.Int("candidates", len(cands)),
			zap.Int("trades", r.TotalTrades),
			zap.Float64("win_rate", r.WinRate),
		)
	}
	return r
}

// roundTick 按 0.01 最小价格变动单位四舍五入
func roundTick(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
