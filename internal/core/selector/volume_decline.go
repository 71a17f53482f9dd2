package selector

import (
	"math"

	"strategy-lab/internal/core/model"
)

// VolumeDeclineSelector 连续下跌缩量选股策略
// 连续下跌且成交量萎缩、未跌破支撑位的标的，按距离压力位的空间排序
type VolumeDeclineSelector struct {
	topN           int
	lookback       int
	minDeclineDays int
	minVolumeDrop  float64
	pricePeriod    int
}

// NewVolumeDeclineSelector 创建连续下跌缩量选股策略
// 参数 minDeclineDays: 最少连续下跌天数（建议 3）
// 参数 minVolumeDrop: 最小缩量比例（建议 0.1）
// 参数 pricePeriod: 支撑 / 压力位统计天数（建议 20）
func NewVolumeDeclineSelector(topN, lookback, minDeclineDays int, minVolumeDrop float64, pricePeriod int) *VolumeDeclineSelector {
	if lookback < 10 {
		lookback = 30
	}
	if pricePeriod <= 0 {
		pricePeriod = 20
	}
	return &VolumeDeclineSelector{
		topN:           topN,
		lookback:       lookback,
		minDeclineDays: minDeclineDays,
		minVolumeDrop:  minVolumeDrop,
		pricePeriod:    pricePeriod,
	}
}

// Name 策略名称
func (v *VolumeDeclineSelector) Name() string {
	return "连续下跌缩量策略"
}

// Select 选股
func (v *VolumeDeclineSelector) Select(p *model.Panel, offset int) []model.Candidate {
	return Rank(p, offset, v.topN, v.Score)
}

// Score 打分 = 距离压力位的百分比
func (v *VolumeDeclineSelector) Score(_ string, s model.Series, offset int) float64 {
	w := s.Window(offset, v.lookback)
	if len(w) < 10 {
		return 0
	}

	// 连续下跌天数，最多看 4 天
	declines := 0
	for i := 1; i < 5 && i < len(w); i++ {
		if w[i-1].Close < w[i].Close {
			declines++
		} else {
			break
		}
	}
	if declines < v.minDeclineDays {
		return 0
	}

	// 支撑 / 压力位取决策日之前的区间
	period := min(v.pricePeriod, len(w)-1)
	support, resistance := math.MaxFloat64, 0.0
	for i := 1; i <= period; i++ {
		support = math.Min(support, w[i].Low)
		resistance = math.Max(resistance, w[i].High)
	}
	cur := w[0]
	if cur.Close < support || cur.Close <= 0 {
		return 0
	}

	// 以前 5 日均量为基准
	n := min(5, len(w)-1)
	var vol float64
	for i := 1; i <= n; i++ {
		vol += float64(w[i].Volume)
	}
	avg := vol / float64(n)
	if avg <= 0 {
		return 0
	}
	drop := 1 - float64(cur.Volume)/avg
	if drop < v.minVolumeDrop {
		return 0
	}

	return (resistance - cur.Close) / cur.Close * 100
}
