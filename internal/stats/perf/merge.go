package perf

import (
	"strategy-lab/internal/core/model"
)

// Merge 合并多个回测结果
// 计数相加；平均值按交易数加权；最大收益取最大、最大亏损取最小；
// 逐笔收益与明细按输入顺序拼接，并据此重算夏普比率与最大回撤。
func Merge(results ...Result) Result {
	out := New()
	var sumRet, sumDays float64
	var nReturns, nTrades int
	for i := range results {
		nReturns += len(results[i].Returns)
		nTrades += len(results[i].Trades)
	}
	if nReturns > 0 {
		out.Returns = make([]float64, 0, nReturns)
	}
	if nTrades > 0 {
		out.Trades = make([]model.TradeOutcome, 0, nTrades)
	}

	for i := range results {
		r := &results[i]
		out.TotalTrades += r.TotalTrades
		out.WinningTrades += r.WinningTrades
		out.LosingTrades += r.LosingTrades
		out.StopLossTrades += r.StopLossTrades
		out.StopLossFailTrades += r.StopLossFailTrades
		out.TimeExpiredTrades += r.TimeExpiredTrades

		n := float64(r.TotalTrades)
		sumRet += r.AvgReturn * n
		sumDays += r.AvgHoldDays * n

		if r.MaxReturn > out.MaxReturn {
			out.MaxReturn = r.MaxReturn
		}
		if r.MaxLoss < out.MaxLoss {
			out.MaxLoss = r.MaxLoss
		}

		out.Returns = append(out.Returns, r.Returns...)
		out.Trades = append(out.Trades, r.Trades...)
	}

	if out.TotalTrades > 0 {
		n := float64(out.TotalTrades)
		out.AvgReturn = sumRet / n
		out.AvgHoldDays = sumDays / n
	}

	out.refreshRates()
	out.CalculateAdvancedMetrics()
	return out
}

// Add 将 other 合并到当前结果
func (r *Result) Add(other Result) {
	*r = Merge(*r, other)
}
