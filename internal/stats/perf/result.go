// Package perf 汇总模拟交易结果，计算胜率、收益、夏普比率、最大回撤与盈亏比。
// 样本为空时比率回退为 0，报告口径盈亏比为 +Inf，不产生 NaN。
package perf

import (
	"strategy-lab/internal/core/model"
)

// Result 回测统计结果
type Result struct {
	// TotalTrades 交易总数（不含被排除的交易）
	TotalTrades int
	// WinningTrades 盈利交易数（target_reached）
	WinningTrades int
	// LosingTrades 非盈利交易数 = Total - Winning
	LosingTrades int
	// StopLossTrades 正常止损交易数
	StopLossTrades int
	// StopLossFailTrades 跳空止损失败交易数
	StopLossFailTrades int
	// TimeExpiredTrades 到期卖出交易数
	TimeExpiredTrades int

	// WinRate 胜率 = Winning / Total
	WinRate float64
	// StopLossRate 止损率 = StopLoss / Total
	StopLossRate float64
	// StopLossFailRate 止损失败率 = StopLossFail / Total
	StopLossFailRate float64

	// AvgReturn 平均收益率
	AvgReturn float64
	// MaxReturn 单笔最大收益率（下限 0）
	MaxReturn float64
	// MaxLoss 单笔最大亏损，即最小收益率（上限 0）
	MaxLoss float64
	// AvgHoldDays 平均持有天数
	AvgHoldDays float64

	// SharpeRatio 夏普比率 = mean / 总体标准差
	SharpeRatio float64
	// MaxDrawdown 按交易顺序累计收益的最大回撤
	MaxDrawdown float64
	// ProfitFactor 盈亏比，无亏损交易时为 +Inf
	ProfitFactor float64
	// ProfitFactorGross 常规口径盈亏比 = 总盈利 / 总亏损绝对值
	ProfitFactorGross float64
	// SortinoRatio 索提诺比率，只用负收益计算下行波动
	SortinoRatio float64

	// Returns 逐笔收益率（始终保留，用于合并时重算夏普与回撤）
	Returns []float64
	// Trades 逐笔交易明细（仅在开启明细收集时保留）
	Trades []model.TradeOutcome
}

// New 创建空结果
func New() Result {
	return Result{}
}

// FromOutcomes 由一组交易结果构建统计
// 参数 outcomes: 交易结果（按模拟顺序）
// 参数 keepTrades: 是否保留逐笔明细
func FromOutcomes(outcomes []model.TradeOutcome, keepTrades bool) Result {
	r := New()
	if len(outcomes) == 0 {
		r.CalculateAdvancedMetrics()
		return r
	}

	r.Returns = make([]float64, 0, len(outcomes))
	var sumRet, sumDays float64
	for i := range outcomes {
		o := &outcomes[i]
		r.TotalTrades++
		switch o.ExitReason {
		case model.ExitTargetReached:
			r.WinningTrades++
		case model.ExitStopLoss:
			r.StopLossTrades++
		case model.ExitStopLossFailed:
			r.StopLossFailTrades++
		case model.ExitTimeExpired:
			r.TimeExpiredTrades++
		}
		sumRet += o.ReturnPct
		sumDays += float64(o.HoldDays)
		if o.ReturnPct > r.MaxReturn {
			r.MaxReturn = o.ReturnPct
		}
		if o.ReturnPct < r.MaxLoss {
			r.MaxLoss = o.ReturnPct
		}
		r.Returns = append(r.Returns, o.ReturnPct)
	}
	r.LosingTrades = r.TotalTrades - r.WinningTrades

	n := float64(r.TotalTrades)
	r.AvgReturn = sumRet / n
	r.AvgHoldDays = sumDays / n

	if keepTrades {
		r.Trades = append([]model.TradeOutcome(nil), outcomes...)
	}

	r.refreshRates()
	r.CalculateAdvancedMetrics()
	return r
}

// refreshRates 计算比率，交易数为 0 时全部为 0
func (r *Result) refreshRates() {
	if r.TotalTrades == 0 {
		r.WinRate, r.StopLossRate, r.StopLossFailRate = 0, 0, 0
		return
	}
	n := float64(r.TotalTrades)
	r.WinRate = float64(r.WinningTrades) / n
	r.StopLossRate = float64(r.StopLossTrades) / n
	r.StopLossFailRate = float64(r.StopLossFailTrades) / n
}

// CalculateAdvancedMetrics 由逐笔收益率重算夏普比率、最大回撤、两种口径的盈亏比与索提诺比率
func (r *Result) CalculateAdvancedMetrics() {
	r.SharpeRatio = Sharpe(r.Returns)
	r.MaxDrawdown = MaxDrawdown(r.Returns)
	r.ProfitFactor = ProfitFactor(r.WinningTrades, r.LosingTrades, r.AvgReturn, r.MaxLoss)
	r.ProfitFactorGross = ProfitFactorGross(r.Returns)
	r.SortinoRatio = Sortino(r.Returns, 0)
}
