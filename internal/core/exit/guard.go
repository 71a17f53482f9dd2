package exit

import (
	"fmt"

	"strategy-lab/internal/core/model"
)

// GuardPolicy 守护型退出策略
// 持有期内未触及止损即视为成功，按最后一日收盘价卖出并记为 target_reached；
// 止损相关判定（首日跳空、非首日跳空、盘中触及）与 ReturnPolicy 一致。
type GuardPolicy struct {
	name   string
	params Params
}

// NewGuardPolicy 创建守护型退出策略
// 参数 stopLossPct: 止损比例
// 参数 days: 持有天数
func NewGuardPolicy(name string, stopLossPct float64, days int) *GuardPolicy {
	if name == "" {
		name = fmt.Sprintf("guard_%dd", days)
	}
	return &GuardPolicy{
		name:   name,
		params: Params{StopLossPct: stopLossPct, HorizonDays: days},
	}
}

// Name 策略名称
func (g *GuardPolicy) Name() string {
	return g.name
}

// Params 策略参数（TargetReturn 恒为 0）
func (g *GuardPolicy) Params() Params {
	return g.params
}

// Simulate 模拟持有期
func (g *GuardPolicy) Simulate(symbol string, s model.Series, buyPrice float64, offset int) (model.TradeOutcome, bool) {
	p := g.params
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
		if k > 1 && bar.Open < stop {
			out.PeakReturn = peak
			return closeAt(out, bar, k, bar.Open, buyPrice, model.ExitStopLossFailed), true
		}
		if bar.Low <= stop {
			out.PeakReturn = peak
			return stopAt(out, bar, k, stop, p.StopLossPct), true
		}
		peak = maxf(peak, (bar.Close-buyPrice)/buyPrice)
	}

	last, _ := s.Forward(offset, p.HorizonDays)
	out.PeakReturn = peak
	return closeAt(out, last, p.HorizonDays, last.Close, buyPrice, model.ExitTargetReached), true
}
