// Package selector 实现选股策略：在决策日对截面数据打分，按得分取前 N 个标的。
package selector

import (
	"math"
	"sort"

	"strategy-lab/internal/core/model"
)

// Selector 选股策略
type Selector interface {
	// Name 策略名称
	Name() string
	// Select 在决策日 offset 选股，结果按得分从高到低排列，数量不超过 top-N
	Select(p *model.Panel, offset int) []model.Candidate
}

// ScoreFunc 单标的打分函数，得分 <= 0 表示不入选
type ScoreFunc func(symbol string, s model.Series, offset int) float64

// Rank 对截面数据打分并排序
// 得分相同时按代码字典序排列，保证结果确定
// 参数 topN: 最多返回数量，<= 0 表示不限制
func Rank(p *model.Panel, offset, topN int, score ScoreFunc) []model.Candidate {
	var out []model.Candidate
	for _, sym := range p.Symbols() {
		s, ok := p.Get(sym)
		if !ok || offset < 0 || offset >= len(s) {
			continue
		}
		v := score(sym, s, offset)
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, model.Candidate{Symbol: sym, Series: s, Score: v})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// last 取切片最后一个元素
func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

// lastTwo 取切片最后两个元素（前一个, 当前）
func lastTwo(xs []float64) (prev, cur float64, ok bool) {
	if len(xs) < 2 {
		return 0, 0, false
	}
	return xs[len(xs)-2], xs[len(xs)-1], true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var v float64
	for _, x := range xs {
		v += (x - m) * (x - m)
	}
	return math.Sqrt(v / float64(len(xs)))
}
