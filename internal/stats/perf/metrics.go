package perf

import (
	"math"
)

// profitFactorEpsilon 盈亏比分母中最大亏损的下限
const profitFactorEpsilon = 0.001

// Sharpe 夏普比率（无风险利率为 0）
// 返回: mean / 总体标准差；样本为空或标准差为 0 时返回 0
func Sharpe(returns []float64) float64 {
	return SharpeRatio(returns, 0)
}

// SharpeRatio 带无风险利率的夏普比率
// 参数 rf: 单笔无风险收益率
func SharpeRatio(returns []float64, rf float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := Mean(returns)
	std := StdDev(returns)
	if std == 0 {
		return 0
	}
	return (mean - rf) / std
}

// Mean 算术平均，空样本返回 0
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev 总体标准差，空样本返回 0
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := Mean(xs)
	var v float64
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return math.Sqrt(v / float64(len(xs)))
}

// Equity 按顺序复利累计的净值曲线，从 1 开始（不含起点）
func Equity(returns []float64) []float64 {
	out := make([]float64, len(returns))
	cum := 1.0
	for i, r := range returns {
		cum *= 1 + r
		out[i] = cum
	}
	return out
}

// MaxDrawdown 最大回撤
// 按交易顺序复利累计，峰值初始为第一笔后的净值，回撤 = (peak - cum) / peak。
// 结果依赖输入顺序。
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return MaxDrawdownValues(Equity(returns))
}

// MaxDrawdownValues 净值序列的最大回撤
func MaxDrawdownValues(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	var mdd float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > mdd {
			mdd = dd
		}
	}
	return mdd
}

// ProfitFactor 盈亏比（回测报告口径）
// 计算公式: (winning × max(avg_return, 0)) / (losing × max(|max_loss|, 0.001))
// 无亏损交易时返回 +Inf（包括没有任何交易）
func ProfitFactor(winning, losing int, avgReturn, maxLoss float64) float64 {
	if losing == 0 {
		return math.Inf(1)
	}
	return (float64(winning) * math.Max(avgReturn, 0)) /
		(float64(losing) * math.Max(math.Abs(maxLoss), profitFactorEpsilon))
}

// ProfitFactorGross 盈亏比（常规口径）= 总盈利 / 总亏损绝对值
// 无亏损时返回 +Inf，空样本返回 0
func ProfitFactorGross(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var profits, losses float64
	for _, r := range returns {
		if r > 0 {
			profits += r
		} else if r < 0 {
			losses -= r
		}
	}
	if losses == 0 {
		return math.Inf(1)
	}
	return profits / losses
}

// Sortino 索提诺比率，只用负收益计算下行波动
// 无负收益时返回 +Inf，空样本返回 0
func Sortino(returns []float64, rf float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sq float64
	var n int
	for _, r := range returns {
		if r < 0 {
			sq += r * r
			n++
		}
	}
	if n == 0 {
		return math.Inf(1)
	}
	dd := math.Sqrt(sq / float64(n))
	if dd == 0 {
		return 0
	}
	return (Mean(returns) - rf) / dd
}
