// Package exit 实现持有期内的退出模拟（止盈 / 止损 / 跳空止损失败 / 到期）。
// 重要：仅用于历史回测，不产生任何真实委托。
package exit

import (
	"fmt"

	"strategy-lab/internal/core/model"
)

// Params 退出策略参数
type Params struct {
	// TargetReturn 目标收益率，如 0.06 表示 6%
	TargetReturn float64
	// StopLossPct 止损比例，如 0.01 表示 1%
	StopLossPct float64
	// HorizonDays 最大持有天数（>= 1）
	HorizonDays int
}

// StopPrice 计算止损价 = buy × (1 - stop_loss_pct)
func (p Params) StopPrice(buyPrice float64) float64 {
	return buyPrice * (1 - p.StopLossPct)
}

// TargetPrice 计算目标价 = buy × (1 + target_return)
func (p Params) TargetPrice(buyPrice float64) float64 {
	return buyPrice * (1 + p.TargetReturn)
}

// Policy 退出策略
type Policy interface {
	// Name 策略名称
	Name() string
	// Params 策略参数
	Params() Params
	// Simulate 从决策日 offset 开始模拟持有期
	// 返回 false 表示该笔交易被排除（买入价无效或后续数据不足）
	Simulate(symbol string, s model.Series, buyPrice float64, offset int) (model.TradeOutcome, bool)
}

// ReturnPolicy 目标收益率退出策略
type ReturnPolicy struct {
	name   string
	params Params
}

// NewReturnPolicy 创建目标收益率退出策略
// 参数 name: 策略名称，为空时按参数生成
func NewReturnPolicy(name string, params Params) *ReturnPolicy {
	if name == "" {
		name = fmt.Sprintf("return_%dd", params.HorizonDays)
	}
	return &ReturnPolicy{name: name, params: params}
}

// Name 策略名称
func (p *ReturnPolicy) Name() string {
	return p.name
}

// Params 策略参数
func (p *ReturnPolicy) Params() Params {
	return p.params
}

// Simulate 模拟持有期
func (p *ReturnPolicy) Simulate(symbol string, s model.Series, buyPrice float64, offset int) (model.TradeOutcome, bool) {
	return Simulate(symbol, s, buyPrice, offset, p.params)
}

// Simulate 目标收益率状态机
//
// 持有期为决策日之后的第 1..horizon 个交易日，按时间顺序逐日检查，最早触发者生效：
//  1. 第 1 天开盘价低于止损价：跳空止损失败，按开盘价卖出，不再检查其他条件
//  2. 当日收盘收益率 >= 目标：止盈，按收盘价卖出（同日目标优先于止损）
//  3. 非首日开盘价低于止损价：跳空止损失败，按开盘价卖出
//  4. 最低价 <= 止损价 <= 开盘价：正常止损，按止损价卖出，收益率严格等于 -stop_loss_pct
//  5. 全部未触发：到期，按最后一日收盘价卖出
//
// horizon == 1 时，到期结果还会按当日最低价再判断一次是否触及止损。
func Simulate(symbol string, s model.Series, buyPrice float64, offset int, p Params) (model.TradeOutcome, bool) {
	if buyPrice <= 0 || p.HorizonDays < 1 {
		return model.TradeOutcome{}, false
	}
	if !s.HasHorizon(offset, p.HorizonDays) {
		return model.TradeOutcome{}, false
	}

	stop := p.StopPrice(buyPrice)
	out := model.TradeOutcome{
		Symbol:     symbol,
		EntryDate:  s[offset].Date,
		EntryPrice: buyPrice,
	}

	first, _ := s.Forward(offset, 1)
	if first.Open < stop {
		return closeAt(out, first, 1, first.Open, buyPrice, model.ExitStopLossFailed), true
	}

	peak := (first.Close - buyPrice) / buyPrice
	for k := 1; k <= p.HorizonDays; k++ {
		bar, _ := s.Forward(offset, k)
		ret := (bar.Close - buyPrice) / buyPrice

		if ret >= p.TargetReturn {
			out.PeakReturn = maxf(peak, ret)
			return closeAt(out, bar, k, bar.Close, buyPrice, model.ExitTargetReached), true
		}
		if k > 1 && bar.Open < stop {
			out.PeakReturn = peak
			return closeAt(out, bar, k, bar.Open, buyPrice, model.ExitStopLossFailed), true
		}
		if bar.Low <= stop && stop <= bar.Open {
			out.PeakReturn = peak
			return stopAt(out, bar, k, stop, p.StopLossPct), true
		}
		peak = maxf(peak, ret)
	}

	last, _ := s.Forward(offset, p.HorizonDays)
	out.PeakReturn = peak
	out = closeAt(out, last, p.HorizonDays, last.Close, buyPrice, model.ExitTimeExpired)

	if p.HorizonDays == 1 && last.Low <= stop {
		if last.Open >= stop {
			out = stopAt(out, last, 1, stop, p.StopLossPct)
		} else {
			out = closeAt(out, last, 1, last.Open, buyPrice, model.ExitStopLossFailed)
		}
	}
	return out, true
}

// closeAt 按指定价格平仓
func closeAt(out model.TradeOutcome, bar model.Bar, day int, price, buyPrice float64, reason model.ExitReason) model.TradeOutcome {
	out.ExitDate = bar.Date
	out.ExitPrice = price
	out.ReturnPct = (price - buyPrice) / buyPrice
	out.HoldDays = day
	out.ExitReason = reason
	return out
}

// stopAt 按止损价平仓，收益率直接取 -stop_loss_pct 避免浮点误差
func stopAt(out model.TradeOutcome, bar model.Bar, day int, stop, stopLossPct float64) model.TradeOutcome {
	out.ExitDate = bar.Date
	out.ExitPrice = stop
	out.ReturnPct = -stopLossPct
	out.HoldDays = day
	out.ExitReason = model.ExitStopLoss
	return out
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
