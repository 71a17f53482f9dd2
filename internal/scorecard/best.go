package scorecard

import (
	"sort"
)

// FindBest 查找得分最高的组合
// 严格大于才替换，得分相同时保留最先遍历到的组合；初始值为 (0, 0, 0, 0)
func FindBest(m Matrix) Best {
	var best Best
	for t := range m {
		for sel := range m[t] {
			for sig, score := range m[t][sel] {
				if score > best.Score {
					best = Best{Target: t, Selector: sel, Signal: sig, Score: score}
				}
			}
		}
	}
	return best
}

// Rank 全部组合按得分从高到低排列，得分相同按遍历顺序
func Rank(m Matrix) []Best {
	var out []Best
	for t := range m {
		for sel := range m[t] {
			for sig, score := range m[t][sel] {
				out = append(out, Best{Target: t, Selector: sel, Signal: sig, Score: score})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Top 得分最高的 n 个组合
func Top(m Matrix, n int) []Best {
	r := Rank(m)
	if n >= 0 && len(r) > n {
		r = r[:n]
	}
	return r
}

// sortDetails 按坐标顺序排列
func sortDetails(ds []Detail) {
	sort.Slice(ds, func(i, j int) bool {
		a, b := ds[i].Best, ds[j].Best
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if a.Selector != b.Selector {
			return a.Selector < b.Selector
		}
		return a.Signal < b.Signal
	})
}
