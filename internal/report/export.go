package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid"

	"strategy-lab/internal/scorecard"
)

// Export 评分卡 JSON 导出结构
type Export struct {
	RunID      string `json:"run_id"`
	UpdateDate string `json:"update_date"`
	// BestStrategy 最佳组合名称: 策略-信号-目标
	BestStrategy string `json:"best_strategy"`
	// BestCombinations 最佳与次佳组合在 Strategies 中的下标
	BestCombinations []int      `json:"best_combinations"`
	Strategies       []Strategy `json:"strategies"`
}

// Strategy 单个组合的导出结果
type Strategy struct {
	StrategyName    string           `json:"strategy_name"`
	SignalName      string           `json:"signal_name"`
	TargetName      string           `json:"target_name"`
	Performance     Performance      `json:"performance"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Performance 统计指标，非有限值导出为 null
type Performance struct {
	SuccessRate       *float64 `json:"success_rate"`
	StopLossRate      *float64 `json:"stop_loss_rate"`
	StopLossFailRate  *float64 `json:"stop_loss_fail_rate"`
	AvgReturn         *float64 `json:"avg_return"`
	MaxReturn         *float64 `json:"max_return"`
	MaxLoss           *float64 `json:"max_loss"`
	AvgHoldDays       *float64 `json:"avg_hold_days"`
	SharpeRatio       *float64 `json:"sharpe_ratio"`
	MaxDrawdown       *float64 `json:"max_drawdown"`
	ProfitFactor      *float64 `json:"profit_factor"`
	ProfitFactorGross *float64 `json:"profit_factor_gross"`
	SortinoRatio      *float64 `json:"sortino_ratio"`
	TotalTrades       int      `json:"total_trades"`
}

// Recommendation 推荐标的；PrevClose 缺失时为 null
type Recommendation struct {
	Symbol        string   `json:"symbol"`
	BuyPrice      float64  `json:"buy_price"`
	TargetPrice   float64  `json:"target_price"`
	StopLossPrice float64  `json:"stop_loss_price"`
	PrevClose     *float64 `json:"prev_close"`
}

// finite 有限值返回指针，NaN / ±Inf 返回 nil
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Build 由评分矩阵与详细结果构建导出数据
// details 为得分 > 0 的组合，按 [target][selector][signal] 顺序；
// success_rate 取矩阵中的得分
func Build(n Names, m scorecard.Matrix, details []scorecard.Detail, runID uuid.UUID, now time.Time) Export {
	best := scorecard.FindBest(m)
	out := Export{
		RunID:            runID.String(),
		UpdateDate:       now.Format("2006-01-02"),
		BestStrategy:     n.Label(best),
		BestCombinations: []int{0, 1},
		Strategies:       make([]Strategy, 0, len(details)),
	}

	index := make(map[[3]int]int, len(details))
	for i, d := range details {
		index[[3]int{d.Target, d.Selector, d.Signal}] = i
		out.Strategies = append(out.Strategies, strategyOf(n, d))
	}

	if i, ok := index[[3]int{best.Target, best.Selector, best.Signal}]; ok {
		out.BestCombinations[0] = i
	}
	if second, ok := secondBest(m, best); ok {
		if i, ok := index[[3]int{second.Target, second.Selector, second.Signal}]; ok {
			out.BestCombinations[1] = i
		}
	}
	return out
}

// secondBest 除 best 坐标外得分最高的组合，严格大于才替换
func secondBest(m scorecard.Matrix, best scorecard.Best) (scorecard.Best, bool) {
	var out scorecard.Best
	found := false
	for t := range m {
		for sel := range m[t] {
			for sig, score := range m[t][sel] {
				if t == best.Target && sel == best.Selector && sig == best.Signal {
					continue
				}
				if score > out.Score {
					out = scorecard.Best{Target: t, Selector: sel, Signal: sig, Score: score}
					found = true
				}
			}
		}
	}
	return out, found
}

func strategyOf(n Names, d scorecard.Detail) Strategy {
	r := d.Result
	s := Strategy{
		StrategyName: n.at(n.Selectors, d.Selector),
		SignalName:   n.at(n.Signals, d.Signal),
		TargetName:   n.at(n.Targets, d.Target),
		Performance: Performance{
			SuccessRate:       finite(d.Score),
			StopLossRate:      finite(r.StopLossRate),
			StopLossFailRate:  finite(r.StopLossFailRate),
			AvgReturn:         finite(r.AvgReturn),
			MaxReturn:         finite(r.MaxReturn),
			MaxLoss:           finite(r.MaxLoss),
			AvgHoldDays:       finite(r.AvgHoldDays),
			SharpeRatio:       finite(r.SharpeRatio),
			MaxDrawdown:       finite(r.MaxDrawdown),
			ProfitFactor:      finite(r.ProfitFactor),
			ProfitFactorGross: finite(r.ProfitFactorGross),
			SortinoRatio:      finite(r.SortinoRatio),
			TotalTrades:       r.TotalTrades,
		},
		Recommendations: make([]Recommendation, 0, len(d.Recommendations)),
	}
	for _, rec := range d.Recommendations {
		var prev *float64
		if rec.PrevClose > 0 {
			prev = finite(rec.PrevClose)
		}
		s.Recommendations = append(s.Recommendations, Recommendation{
			Symbol:        rec.Symbol,
			BuyPrice:      rec.BuyPrice,
			TargetPrice:   rec.TargetPrice,
			StopLossPrice: rec.StopLossPrice,
			PrevClose:     prev,
		})
	}
	return s
}

// WriteFile 以缩进格式写入 JSON 文件，父目录不存在时自动创建
func WriteFile(path string, e Export) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化导出数据失败: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("写入导出文件失败: %w", err)
	}
	return nil
}
