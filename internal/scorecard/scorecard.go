// Package scorecard 对 (退出策略 × 选股策略 × 入场规则) 的全部组合并行回测并打分。
// 每个组合只写入自己坐标对应的位置，结果与调度顺序无关。
package scorecard

import (
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"strategy-lab/internal/backtest"
	"strategy-lab/internal/core/entry"
	"strategy-lab/internal/core/exit"
	"strategy-lab/internal/core/model"
	"strategy-lab/internal/core/selector"
	"strategy-lab/internal/stats/perf"
)

// Matrix 评分矩阵，下标顺序为 [target][selector][signal]
type Matrix [][][]float64

// Best 组合坐标与得分
type Best struct {
	Target   int
	Selector int
	Signal   int
	Score    float64
}

// Detail 单个组合的详细回测结果
type Detail struct {
	Best
	// Result 合并后的回测统计
	Result perf.Result
	// Recommendations 最新交易日的推荐标的
	Recommendations []model.Recommendation
}

// Scorecard 评分卡
type Scorecard struct {
	engine    *backtest.Engine
	backDays  int
	policies  []exit.Policy
	selectors []selector.Selector
	rules     []entry.Rule
	workers   int
	logger    *zap.Logger
}

// Option 评分卡选项
type Option func(*Scorecard)

// WithWorkers 设置并行度，<= 0 时使用 GOMAXPROCS
func WithWorkers(n int) Option {
	return func(s *Scorecard) { s.workers = n }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(s *Scorecard) {
		if l != nil {
			s.logger = l
		}
	}
}

// New 创建评分卡
func New(engine *backtest.Engine, backDays int, policies []exit.Policy, selectors []selector.Selector, rules []entry.Rule, opts ...Option) *Scorecard {
	s := &Scorecard{
		engine:    engine,
		backDays:  backDays,
		policies:  policies,
		selectors: selectors,
		rules:     rules,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	return s
}

// Policies 退出策略列表
func (s *Scorecard) Policies() []exit.Policy { return s.policies }

// Selectors 选股策略列表
func (s *Scorecard) Selectors() []selector.Selector { return s.selectors }

// Rules 入场规则列表
func (s *Scorecard) Rules() []entry.Rule { return s.rules }

// Size 组合总数
func (s *Scorecard) Size() int {
	return len(s.policies) * len(s.selectors) * len(s.rules)
}

// Run 并行计算全部组合的得分（滚动胜率均值）
func (s *Scorecard) Run() Matrix {
	m := s.newMatrix()
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(s.workers)
	s.each(func(t, sel, sig int) {
		g.Go(func() error {
			score := s.engine.RunBacktest(s.selectors[sel], s.rules[sig], s.policies[t], s.backDays)
			m[t][sel][sig] = score
			s.logger.Debug("组合评分完成",
				zap.String("target", s.policies[t].Name()),
				zap.String("selector", s.selectors[sel].Name()),
				zap.String("signal", s.rules[sig].Name()),
				zap.Float64("score", score),
			)
			return nil
		})
	})
	// 任务只写入各自的下标，不会返回错误
	_ = g.Wait()

	s.logger.Info("评分卡计算完成",
		zap.Int("combinations", s.Size()),
		zap.Int("back_days", s.backDays),
		zap.Duration("elapsed", time.Since(start)),
	)
	return m
}

// Details 对得分 > 0 的组合并行执行详细回测并生成推荐
// 结果按 [target][selector][signal] 顺序排列
func (s *Scorecard) Details(m Matrix) []Detail {
	var cells []Best
	for _, b := range Rank(m) {
		if b.Score > 0 {
			cells = append(cells, b)
		}
	}
	out := make([]Detail, len(cells))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range cells {
		i := i
		g.Go(func() error {
			c := cells[i]
			sel, rule, pol := s.selectors[c.Selector], s.rules[c.Signal], s.policies[c.Target]
			out[i] = Detail{
				Best:            c,
				Result:          s.engine.RunDetailed(sel, rule, pol, s.backDays),
				Recommendations: s.engine.Recommend(sel, rule, pol),
			}
			return nil
		})
	}
	// 任务只写入各自的下标，不会返回错误
	_ = g.Wait()

	sortDetails(out)
	return out
}

// each 按 target -> selector -> signal 顺序遍历
func (s *Scorecard) each(fn func(t, sel, sig int)) {
	for t := range s.policies {
		for sel := range s.selectors {
			for sig := range s.rules {
				fn(t, sel, sig)
			}
		}
	}
}

func (s *Scorecard) newMatrix() Matrix {
	m := make(Matrix, len(s.policies))
	for t := range m {
		m[t] = make([][]float64, len(s.selectors))
		for sel := range m[t] {
			m[t][sel] = make([]float64, len(s.rules))
		}
	}
	return m
}
