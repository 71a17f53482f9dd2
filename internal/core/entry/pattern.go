package entry

import (
	"strategy-lab/internal/core/model"
)

// BottomReverse 底部反转信号
// 决策日满足以下任一形态时入场，买入价 = 次日开盘价 × (1 + buffer)：
//   - 低开高走：开盘低于前一日最低价，收盘高于前一日最高价
//   - 缩量收阳：收盘高于开盘，且成交量低于前一日的 90%
type BottomReverse struct {
	// Buffer 买入缓冲比例，如 0.01
	Buffer float64
}

// Name 规则名称
func (BottomReverse) Name() string { return "底部反转信号" }

// Match 决策日是否出现反转形态
func (BottomReverse) Match(s model.Series, offset int) bool {
	today, ok1 := s.At(offset)
	prev, ok2 := s.At(offset + 1)
	if !ok1 || !ok2 {
		return false
	}
	engulf := today.Open < prev.Low && today.Close > prev.High
	quiet := today.Close > today.Open && float64(today.Volume) < float64(prev.Volume)*0.9
	return engulf || quiet
}

// Price 计算买入价
func (b BottomReverse) Price(_ string, s model.Series, offset int) float64 {
	if !b.Match(s, offset) {
		return 0
	}
	next, ok := s.Forward(offset, 1)
	if !ok {
		return 0
	}
	return next.Open * (1 + b.Buffer)
}

// VolumeSurge 放量信号
// 决策日成交量 >= 前 5 日均量 × ratio 时以决策日收盘价入场
type VolumeSurge struct {
	// Ratio 放量倍数，如 2.0
	Ratio float64
	// PriceFilter 是否要求当日收盘上涨
	PriceFilter bool
}

// Name 规则名称
func (VolumeSurge) Name() string { return "成交量突破信号" }

// Price 计算买入价
func (v VolumeSurge) Price(_ string, s model.Series, offset int) float64 {
	if offset < 0 || len(s) <= offset+5 {
		return 0
	}
	today := s[offset]
	var sum float64
	for i := 1; i <= 5; i++ {
		sum += float64(s[offset+i].Volume)
	}
	if float64(today.Volume) < sum/5*v.Ratio {
		return 0
	}
	if v.PriceFilter && today.Close <= s[offset+1].Close {
		return 0
	}
	return today.Close
}

// VolumeDecline 缩量信号
// 连续 days 天成交量不超过前一日的 ratio 倍时以决策日收盘价入场
type VolumeDecline struct {
	// Days 连续缩量天数，如 3
	Days int
	// Ratio 单日缩量比例，如 0.8
	Ratio float64
	// PriceFilter 是否要求收盘价不低于 days 天前
	PriceFilter bool
}

// Name 规则名称
func (VolumeDecline) Name() string { return "成交量萎缩信号" }

// Price 计算买入价
func (v VolumeDecline) Price(_ string, s model.Series, offset int) float64 {
	if offset < 0 || v.Days <= 0 || len(s) <= offset+v.Days {
		return 0
	}
	for i := 0; i < v.Days; i++ {
		if float64(s[offset+i].Volume) > float64(s[offset+i+1].Volume)*v.Ratio {
			return 0
		}
	}
	if v.PriceFilter && s[offset].Close < s[offset+v.Days].Close {
		return 0
	}
	return s[offset].Close
}
