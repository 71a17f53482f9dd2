// Package backtest 回测引擎测试
package backtest

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"strategy-lab/internal/config"
	"strategy-lab/internal/core/entry"
	"strategy-lab/internal/core/exit"
	"strategy-lab/internal/core/model"
	"strategy-lab/internal/core/selector"
)

// allSelector 选出全部标的
type allSelector struct{}

func (allSelector) Name() string { return "all" }

func (allSelector) Select(p *model.Panel, offset int) []model.Candidate {
	return selector.Rank(p, offset, 0, func(string, model.Series, int) float64 { return 1 })
}

// randomPanel 生成随机游走截面数据
func randomPanel(seed int64, symbols, days int) *model.Panel {
	rng := rand.New(rand.NewSource(seed))
	data := make(map[string]model.Series, symbols)
	for i := 0; i < symbols; i++ {
		bars := make([]model.Bar, days)
		px := 10.0
		for d := 0; d < days; d++ {
			open := px * (1 + (rng.Float64()-0.5)*0.04)
			close := open * (1 + (rng.Float64()-0.5)*0.06)
			high := math.Max(open, close) * (1 + rng.Float64()*0.02)
			low := math.Min(open, close) * (1 - rng.Float64()*0.02)
			bars[d] = model.Bar{Date: 20230101 + d, Open: open, High: high, Low: low, Close: close, Volume: 1000 + rng.Int63n(1000)}
			px = close
		}
		data[string(rune('A'+i))+"00000"] = model.Normalize(bars)
	}
	return model.NewPanel(data)
}

func TestOffsets(t *testing.T) {
	pol := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 3})

	fwd := NewEngine(nil).Offsets(pol, 3)
	if !reflect.DeepEqual(fwd, []int{1, 2, 3}) {
		t.Fatalf("forward offsets=%v, want [1 2 3]", fwd)
	}
	after := NewEngine(nil, WithWindow(config.WindowAfterHorizon)).Offsets(pol, 3)
	if !reflect.DeepEqual(after, []int{4, 5, 6}) {
		t.Fatalf("after_horizon offsets=%v, want [4 5 6]", after)
	}
	if got := NewEngine(nil).Offsets(pol, 0); got != nil {
		t.Fatalf("backDays=0 offsets=%v, want nil", got)
	}
}

func TestRunBacktest_MeanOfWinRates(t *testing.T) {
	p := randomPanel(7, 8, 60)
	e := NewEngine(p, WithWindow(config.WindowAfterHorizon))
	pol := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.02, StopLossPct: 0.02, HorizonDays: 2})
	rule := entry.NextOpen{}

	var sum float64
	offsets := e.Offsets(pol, 10)
	for _, off := range offsets {
		sum += e.RunSingle(allSelector{}, rule, pol, off).WinRate
	}
	want := sum / float64(len(offsets))
	if got := e.RunBacktest(allSelector{}, rule, pol, 10); got != want {
		t.Fatalf("RunBacktest=%f, want %f", got, want)
	}
	if got := e.RunBacktest(allSelector{}, rule, pol, 0); got != 0 {
		t.Fatalf("backDays=0 RunBacktest=%f, want 0", got)
	}
}

// risingPanel 单调上涨的截面数据：每日收盘较开盘上涨 5%，次日以前收盘开盘
func risingPanel(days int) *model.Panel {
	bars := make([]model.Bar, days)
	px := 10.0
	for d := 0; d < days; d++ {
		close := px * 1.05
		bars[d] = model.Bar{Date: 20230101 + d, Open: px, High: close, Low: px, Close: close, Volume: 1000}
		px = close
	}
	return model.NewPanel(map[string]model.Series{"600000": model.Normalize(bars)})
}

// oddSelector 只在奇数偏移量上选出全部标的
type oddSelector struct{}

func (oddSelector) Name() string { return "odd" }

func (oddSelector) Select(p *model.Panel, offset int) []model.Candidate {
	if offset%2 == 0 {
		return nil
	}
	return allSelector{}.Select(p, offset)
}

func TestRunBacktest_ForwardWindowHorizonNeutral(t *testing.T) {
	e := NewEngine(risingPanel(40))
	rule := entry.NextOpen{}
	short := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 1})
	long := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 5})

	// 每笔可模拟的交易都在首日收盘达标，持有期长短不应影响得分
	if got := e.RunBacktest(allSelector{}, rule, short, 12); got != 1 {
		t.Fatalf("horizon 1 RunBacktest=%f, want 1", got)
	}
	if got := e.RunBacktest(allSelector{}, rule, long, 12); got != 1 {
		t.Fatalf("horizon 5 RunBacktest=%f, want 1", got)
	}
	d := e.RunDetailed(allSelector{}, rule, long, 12)
	if d.TotalTrades != 8 || d.WinRate != 1 {
		t.Fatalf("horizon 5 pooled Total=%d WinRate=%f, want 8 / 1", d.TotalTrades, d.WinRate)
	}

	// 持有期超过全部偏移量时没有可计入的偏移量
	never := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 20})
	if got := e.RunBacktest(allSelector{}, rule, never, 12); got != 0 {
		t.Fatalf("horizon 20 RunBacktest=%f, want 0", got)
	}
}

func TestRunBacktest_EmptyOffsetCountsZero(t *testing.T) {
	e := NewEngine(risingPanel(40))
	pol := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 1})

	// 偏移量 1..12 中偶数偏移量没有候选，胜率按 0 计入
	if got := e.RunBacktest(oddSelector{}, entry.NextOpen{}, pol, 12); got != 0.5 {
		t.Fatalf("RunBacktest=%f, want 0.5", got)
	}
}

func TestRunDetailed_PoolsOffsets(t *testing.T) {
	p := randomPanel(11, 6, 60)
	pol := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.03, StopLossPct: 0.01, HorizonDays: 3})
	rule := entry.NextClose{}

	e := NewEngine(p, WithWindow(config.WindowAfterHorizon), WithTrades(true))
	var total, wins int
	for _, off := range e.Offsets(pol, 12) {
		r := e.RunSingle(allSelector{}, rule, pol, off)
		total += r.TotalTrades
		wins += r.WinningTrades
	}
	d := e.RunDetailed(allSelector{}, rule, pol, 12)
	if d.TotalTrades != total || d.WinningTrades != wins {
		t.Fatalf("Total=%d Win=%d, want %d/%d", d.TotalTrades, d.WinningTrades, total, wins)
	}
	// 6 个标的 × 12 个偏移量，序列足够长，全部可模拟
	if d.TotalTrades != 72 {
		t.Fatalf("TotalTrades=%d, want 72", d.TotalTrades)
	}
	if len(d.Trades) != d.TotalTrades {
		t.Fatalf("len(Trades)=%d, want %d", len(d.Trades), d.TotalTrades)
	}
}

func TestRunDetailed_CollectFlagDoesNotChangeStats(t *testing.T) {
	p := randomPanel(3, 5, 50)
	pol := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 2})
	rule := entry.NextOpen{}

	with := NewEngine(p, WithTrades(true)).RunDetailed(allSelector{}, rule, pol, 10)
	without := NewEngine(p, WithTrades(false)).RunDetailed(allSelector{}, rule, pol, 10)
	if without.Trades != nil {
		t.Fatalf("关闭明细收集时 Trades 应为 nil")
	}
	with.Trades = nil
	if !reflect.DeepEqual(with, without) {
		t.Fatalf("明细开关改变了统计结果:\n%+v\n%+v", with, without)
	}
}

func TestRunSingle_ForwardWindowExcludesShortHorizon(t *testing.T) {
	p := randomPanel(5, 4, 30)
	pol := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 3})
	e := NewEngine(p)

	// 偏移量 1 之后只有 1 个交易日，持有 3 天的模拟全部被排除
	if r := e.RunSingle(allSelector{}, entry.NextOpen{}, pol, 1); r.TotalTrades != 0 {
		t.Fatalf("TotalTrades=%d, want 0", r.TotalTrades)
	}
	if r := e.RunSingle(allSelector{}, entry.NextOpen{}, pol, 3); r.TotalTrades != 4 {
		t.Fatalf("TotalTrades=%d, want 4", r.TotalTrades)
	}
}

func TestRecommend(t *testing.T) {
	s := model.Series{
		{Date: 20240103, Open: 10.123, High: 10.5, Low: 10, Close: 10.456},
		{Date: 20240102, Open: 10, High: 10.2, Low: 9.9, Close: 10.1},
	}
	p := model.NewPanel(map[string]model.Series{"600000": s})
	pol := exit.NewReturnPolicy("", exit.Params{TargetReturn: 0.06, StopLossPct: 0.01, HorizonDays: 3})

	recs := NewEngine(p).Recommend(allSelector{}, entry.NextClose{}, pol)
	if len(recs) != 1 {
		t.Fatalf("len=%d, want 1", len(recs))
	}
	r := recs[0]
	if r.Symbol != "600000" || r.BuyPrice != 10.46 {
		t.Fatalf("rec=%+v, want buy 10.46", r)
	}
	if r.TargetPrice != 11.08 || r.StopLossPrice != 10.35 {
		t.Fatalf("Target=%f Stop=%f, want 11.08 / 10.35", r.TargetPrice, r.StopLossPrice)
	}
	if r.PrevClose != 10.1 {
		t.Fatalf("PrevClose=%f, want 10.1", r.PrevClose)
	}
}
