package selector

import (
	"github.com/thrasher-corp/gct-ta/indicators"

	"strategy-lab/internal/core/model"
)

// BreakthroughSelector 突破回调选股策略
// 近期出现大阳线突破，随后缩量回调且回调幅度有限的标的
type BreakthroughSelector struct {
	topN            int
	lookback        int
	minBreakthrough float64
	maxPullback     float64
	volumeRatio     float64
}

// NewBreakthroughSelector 创建突破回调选股策略
// 参数 lookback: 寻找突破日的天数（建议 10）
// 参数 minBreakthrough: 突破日最小涨幅（建议 0.05）
// 参数 maxPullback: 最大回调幅度（建议 0.05）
// 参数 volumeRatio: 回调期均量 / 突破日成交量 的上限（建议 0.7）
func NewBreakthroughSelector(topN, lookback int, minBreakthrough, maxPullback, volumeRatio float64) *BreakthroughSelector {
	if lookback <= 1 {
		lookback = 10
	}
	return &BreakthroughSelector{
		topN:            topN,
		lookback:        lookback,
		minBreakthrough: minBreakthrough,
		maxPullback:     maxPullback,
		volumeRatio:     volumeRatio,
	}
}

// Name 策略名称
func (b *BreakthroughSelector) Name() string {
	return "突破回调策略"
}

// Select 选股
func (b *BreakthroughSelector) Select(p *model.Panel, offset int) []model.Candidate {
	return Rank(p, offset, b.topN, b.Score)
}

// Score 打分
func (b *BreakthroughSelector) Score(_ string, s model.Series, offset int) float64 {
	w := s.Window(offset, b.lookback+2)
	if len(w) < b.lookback+2 {
		return 0
	}

	// 最近的突破日（不含决策日）
	day, gain := -1, 0.0
	for i := 1; i <= b.lookback; i++ {
		prev := w[i+1].Close
		if prev <= 0 {
			continue
		}
		if g := (w[i].Close - prev) / prev; g >= b.minBreakthrough {
			day, gain = i, g
			break
		}
	}
	if day < 0 {
		return 0
	}

	peak := w[day].Close
	pullback := (peak - w[0].Close) / peak
	if pullback <= 0 || pullback > b.maxPullback {
		return 0
	}

	var vol float64
	for i := 0; i < day; i++ {
		vol += float64(w[i].Volume)
	}
	if vol/float64(day) > float64(w[day].Volume)*b.volumeRatio {
		return 0
	}

	score := gain*100 + (b.maxPullback-pullback)*100
	if b.goldenCross(s, offset) {
		score += 20
	}
	return score
}

// goldenCross 决策日 MACD 是否处于金叉（DIF 上穿 DEA）
func (b *BreakthroughSelector) goldenCross(s model.Series, offset int) bool {
	w := s.Window(offset, 60)
	if len(w) < 35 {
		return false
	}
	dif, dea, _ := indicators.MACD(w.Closes(), 12, 26, 9)
	pd, cd, ok1 := lastTwo(dif)
	pe, ce, ok2 := lastTwo(dea)
	return ok1 && ok2 && pd <= pe && cd > ce
}
