package selector

import (
	"math"

	"github.com/thrasher-corp/gct-ta/indicators"

	"strategy-lab/internal/core/model"
)

// ATRWeights ATR 选股打分权重
type ATRWeights struct {
	Volatility float64
	Liquidity  float64
	Trend      float64
	Sentiment  float64
	Risk       float64
}

// DefaultATRWeights 默认权重
func DefaultATRWeights() ATRWeights {
	return ATRWeights{Volatility: 0.4, Liquidity: 0.2, Trend: 0.2, Sentiment: 0.1, Risk: 0.1}
}

// ATRFeatures ATR 选股特征
type ATRFeatures struct {
	// NATR 14 日 ATR 占收盘价的百分比
	NATR float64
	// Amplitude 决策日振幅 = (high - low) / 前收
	Amplitude float64
	// HistVol 日收益率标准差（百分比）
	HistVol float64
	// MeanVolume 最近 5 日平均成交量
	MeanVolume float64
	// VolumeRatio 量比 = 当日成交量 / 5 日均量
	VolumeRatio float64
}

// ATRSelector ATR 波动选股策略
// 偏好波动大、放量、历史波动率不过高的标的
type ATRSelector struct {
	topN     int
	lookback int
	period   int
	weights  ATRWeights
}

// NewATRSelector 创建 ATR 选股策略
// 参数 topN: 选股数量
// 参数 lookback: 特征计算使用的历史天数（建议 100）
func NewATRSelector(topN, lookback int) *ATRSelector {
	if lookback < 16 {
		lookback = 100
	}
	return &ATRSelector{
		topN:     topN,
		lookback: lookback,
		period:   14,
		weights:  DefaultATRWeights(),
	}
}

// Name 策略名称
func (a *ATRSelector) Name() string {
	return "ATR波动选股策略"
}

// Select 选股
func (a *ATRSelector) Select(p *model.Panel, offset int) []model.Candidate {
	return Rank(p, offset, a.topN, a.Score)
}

// Features 提取决策日特征，历史数据不足 lookback 时返回 false
func (a *ATRSelector) Features(s model.Series, offset int) (ATRFeatures, bool) {
	w := s.Window(offset, a.lookback)
	if len(w) < a.lookback {
		return ATRFeatures{}, false
	}
	var f ATRFeatures

	atr := last(indicators.ATR(w.Highs(), w.Lows(), w.Closes(), a.period))
	if w[0].Close > 0 {
		f.NATR = atr / w[0].Close * 100
	}
	if prev := w[1].Close; prev > 0 {
		f.Amplitude = (w[0].High - w[0].Low) / prev
	}

	rets := make([]float64, 0, len(w)-1)
	for i := 0; i+1 < len(w); i++ {
		if w[i+1].Close > 0 {
			rets = append(rets, (w[i].Close-w[i+1].Close)/w[i+1].Close)
		}
	}
	f.HistVol = stddev(rets) * 100

	n := min(5, len(w))
	var vol float64
	for i := 0; i < n; i++ {
		vol += float64(w[i].Volume)
	}
	f.MeanVolume = vol / float64(n)
	if f.MeanVolume > 1 {
		f.VolumeRatio = float64(w[0].Volume) / f.MeanVolume
	}
	return f, true
}

// Score 打分
func (a *ATRSelector) Score(_ string, s model.Series, offset int) float64 {
	f, ok := a.Features(s, offset)
	if !ok {
		return 0
	}
	volatility := math.Min(f.NATR*20+f.Amplitude*100, 100)
	liquidity := math.Min(f.VolumeRatio*50, 100)
	trend := 60.0
	sentiment := 50.0
	risk := 100 - math.Min(f.HistVol, 80)

	w := a.weights
	return w.Volatility*volatility + w.Liquidity*liquidity + w.Trend*trend + w.Sentiment*sentiment + w.Risk*risk
}
