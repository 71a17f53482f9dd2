package selector

import (
	"fmt"

	"github.com/thrasher-corp/gct-ta/indicators"

	"strategy-lab/internal/core/model"
)

// RSISelector RSI 超卖反转选股策略
type RSISelector struct {
	topN     int
	period   int
	oversold float64
}

// NewRSISelector 创建 RSI 选股策略
// 参数 period: RSI 周期（建议 14）
// 参数 oversold: 超卖阈值（建议 30）
func NewRSISelector(topN, period int, oversold float64) *RSISelector {
	if period <= 1 {
		period = 14
	}
	return &RSISelector{topN: topN, period: period, oversold: oversold}
}

// Name 策略名称
func (r *RSISelector) Name() string {
	return fmt.Sprintf("RSI(%d)选股策略", r.period)
}

// Select 选股
func (r *RSISelector) Select(p *model.Panel, offset int) []model.Candidate {
	return Rank(p, offset, r.topN, r.Score)
}

// Score 超卖区域反转得分最高，仍在超卖区域次之
func (r *RSISelector) Score(_ string, s model.Series, offset int) float64 {
	w := s.Window(offset, r.period*4)
	if len(w) < r.period+2 {
		return 0
	}
	prev, cur, ok := lastTwo(indicators.RSI(w.Closes(), r.period))
	if !ok {
		return 0
	}
	switch {
	case prev < r.oversold && cur > prev:
		return 100 - cur + (cur-prev)*5
	case cur < r.oversold:
		return 50 - cur
	default:
		return 0
	}
}

// MACDSelector MACD 柱由负转正选股策略
type MACDSelector struct {
	topN               int
	fast, slow, signal int
	lookback           int
}

// NewMACDSelector 创建 MACD 选股策略（12, 26, 9）
func NewMACDSelector(topN int) *MACDSelector {
	return &MACDSelector{topN: topN, fast: 12, slow: 26, signal: 9, lookback: 60}
}

// Name 策略名称
func (m *MACDSelector) Name() string {
	return "MACD选股策略"
}

// Select 选股
func (m *MACDSelector) Select(p *model.Panel, offset int) []model.Candidate {
	return Rank(p, offset, m.topN, m.Score)
}

// Score MACD 柱由负转正得 100 分，柱值增长按增量加分
func (m *MACDSelector) Score(_ string, s model.Series, offset int) float64 {
	w := s.Window(offset, m.lookback)
	if len(w) < m.slow+m.signal {
		return 0
	}
	_, _, hist := indicators.MACD(w.Closes(), m.fast, m.slow, m.signal)
	prev, cur, ok := lastTwo(hist)
	if !ok {
		return 0
	}
	switch {
	case prev < 0 && cur > 0:
		return 100
	case cur > prev:
		return 50 + (cur-prev)*10
	default:
		return 0
	}
}
