// Package entry 实现入场价规则：根据决策日及其之后第一个交易日的行情给出假设买入价。
// 返回 <= 0 表示当日不入场。
package entry

import (
	"fmt"

	"strategy-lab/internal/core/model"
)

// Rule 入场价规则
type Rule interface {
	// Name 规则名称
	Name() string
	// Price 计算决策日 offset 的买入价，<= 0 表示不入场
	Price(symbol string, s model.Series, offset int) float64
}

// Signals 对选股结果逐个计算买入价
// 买入价 <= 0 的标的仍保留在结果中，由调用方排除
func Signals(r Rule, cands []model.Candidate, offset int) []model.Signal {
	out := make([]model.Signal, 0, len(cands))
	for _, c := range cands {
		out = append(out, model.Signal{
			Symbol:   c.Symbol,
			Series:   c.Series,
			BuyPrice: r.Price(c.Symbol, c.Series, offset),
		})
	}
	return out
}

// NextClose 次日收盘价买入
type NextClose struct{}

// Name 规则名称
func (NextClose) Name() string { return "收盘价信号" }

// Price 决策日之后第一个交易日的收盘价
func (NextClose) Price(_ string, s model.Series, offset int) float64 {
	b, ok := s.Forward(offset, 1)
	if !ok {
		return 0
	}
	return b.Close
}

// NextOpen 次日开盘价买入
type NextOpen struct{}

// Name 规则名称
func (NextOpen) Name() string { return "开盘价信号" }

// Price 决策日之后第一个交易日的开盘价
func (NextOpen) Price(_ string, s model.Series, offset int) float64 {
	b, ok := s.Forward(offset, 1)
	if !ok {
		return 0
	}
	return b.Open
}

// Limit 限价买入：挂单价 = 决策日收盘价 × ratio
// 次日最低价未触及挂单价视为未成交；开盘即低于挂单价时按开盘价成交
type Limit struct {
	Ratio float64
}

// Name 规则名称
func (l Limit) Name() string { return fmt.Sprintf("限价信号(%.2f)", l.Ratio) }

// Price 计算成交价
func (l Limit) Price(_ string, s model.Series, offset int) float64 {
	today, ok := s.At(offset)
	if !ok {
		return 0
	}
	next, ok := s.Forward(offset, 1)
	if !ok {
		return 0
	}
	limit := today.Close * l.Ratio
	if limit <= 0 || next.Low > limit {
		return 0
	}
	if next.Open < limit {
		return next.Open
	}
	return limit
}
