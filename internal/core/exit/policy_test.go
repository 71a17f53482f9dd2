// Package exit 退出策略测试
package exit

import (
	"math"
	"testing"

	"strategy-lab/internal/config"
	"strategy-lab/internal/core/model"
)

// forward 按时间正序构造序列：decision 为决策日，days 依次为持有第 1..n 天
// 返回倒序序列与决策日偏移量
func forward(decision model.Bar, days ...model.Bar) (model.Series, int) {
	bars := append([]model.Bar{decision}, days...)
	s := make(model.Series, len(bars))
	for i, b := range bars {
		b.Date = 20240101 + i
		s[len(bars)-1-i] = b
	}
	return s, len(days)
}

func bar(open, high, low, close float64) model.Bar {
	return model.Bar{Open: open, High: high, Low: low, Close: close, Volume: 1000}
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestSimulate_FirstDayGap(t *testing.T) {
	s, off := forward(bar(10, 10, 10, 10), bar(9.80, 10.5, 9.7, 10.4), bar(10, 11, 10, 11))
	out, ok := Simulate("600000", s, 10.00, off, Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 2})
	if !ok {
		t.Fatalf("应模拟成功")
	}
	if out.ExitReason != model.ExitStopLossFailed {
		t.Fatalf("ExitReason=%s, want stop_loss_failed", out.ExitReason)
	}
	if out.ExitPrice != 9.80 {
		t.Fatalf("ExitPrice=%f, want 9.80", out.ExitPrice)
	}
	if !approx(out.ReturnPct, -0.02, 1e-12) {
		t.Fatalf("ReturnPct=%f, want -0.02", out.ReturnPct)
	}
	if out.HoldDays != 1 {
		t.Fatalf("HoldDays=%d, want 1", out.HoldDays)
	}
	if out.ExitDate != 20240102 {
		t.Fatalf("ExitDate=%d, want 20240102", out.ExitDate)
	}
}

func TestSimulate_TargetOnSecondDay(t *testing.T) {
	s, off := forward(
		bar(10, 10, 10, 10),
		bar(10.10, 10.3, 9.95, 10.20),
		bar(10.20, 10.8, 10.1, 10.70),
		bar(10.7, 10.7, 9.0, 9.1),
	)
	out, ok := Simulate("600000", s, 10.00, off, Params{TargetReturn: 0.06, StopLossPct: 0.01, HorizonDays: 3})
	if !ok {
		t.Fatalf("应模拟成功")
	}
	if out.ExitReason != model.ExitTargetReached {
		t.Fatalf("ExitReason=%s, want target_reached", out.ExitReason)
	}
	if out.HoldDays != 2 {
		t.Fatalf("HoldDays=%d, want 2", out.HoldDays)
	}
	if !approx(out.ReturnPct, 0.07, 1e-9) {
		t.Fatalf("ReturnPct=%f, want 0.07", out.ReturnPct)
	}
	if out.EntryDate != 20240101 {
		t.Fatalf("EntryDate=%d, want 20240101", out.EntryDate)
	}
}

func TestSimulate_TargetBeatsStopSameDay(t *testing.T) {
	s, off := forward(bar(10, 10, 10, 10), bar(10.0, 10.8, 9.85, 10.70))
	out, ok := Simulate("600000", s, 10.00, off, Params{TargetReturn: 0.06, StopLossPct: 0.01, HorizonDays: 1})
	if !ok {
		t.Fatalf("应模拟成功")
	}
	if out.ExitReason != model.ExitTargetReached {
		t.Fatalf("ExitReason=%s, want target_reached", out.ExitReason)
	}
}

func TestSimulate_TimeExpired(t *testing.T) {
	s, off := forward(
		bar(10, 10, 10, 10),
		bar(10.0, 10.2, 9.95, 10.1),
		bar(10.1, 10.3, 10.0, 10.2),
		bar(10.2, 10.4, 10.1, 10.3),
	)
	out, ok := Simulate("600000", s, 10.00, off, Params{TargetReturn: 0.06, StopLossPct: 0.01, HorizonDays: 3})
	if !ok {
		t.Fatalf("应模拟成功")
	}
	if out.ExitReason != model.ExitTimeExpired {
		t.Fatalf("ExitReason=%s, want time_expired", out.ExitReason)
	}
	if out.ExitPrice != 10.3 || out.HoldDays != 3 {
		t.Fatalf("ExitPrice=%f HoldDays=%d, want 10.3 / 3", out.ExitPrice, out.HoldDays)
	}
	if !approx(out.PeakReturn, 0.03, 1e-9) {
		t.Fatalf("PeakReturn=%f, want 0.03", out.PeakReturn)
	}
}

func TestSimulate_IntradayStop(t *testing.T) {
	s, off := forward(
		bar(10, 10, 10, 10),
		bar(10.0, 10.2, 9.95, 10.1),
		bar(10.0, 10.1, 9.80, 9.9),
	)
	out, ok := Simulate("600000", s, 10.00, off, Params{TargetReturn: 0.06, StopLossPct: 0.01, HorizonDays: 3})
	if ok {
		t.Fatalf("持有期超出数据范围应被排除, got %+v", out)
	}

	out, ok = Simulate("600000", s, 10.00, off, Params{TargetReturn: 0.06, StopLossPct: 0.01, HorizonDays: 2})
	if !ok {
		t.Fatalf("应模拟成功")
	}
	if out.ExitReason != model.ExitStopLoss {
		t.Fatalf("ExitReason=%s, want stop_loss", out.ExitReason)
	}
	if out.ReturnPct != -0.01 {
		t.Fatalf("ReturnPct=%v, want exactly -0.01", out.ReturnPct)
	}
	if !approx(out.ExitPrice, 9.90, 1e-12) {
		t.Fatalf("ExitPrice=%f, want 9.90", out.ExitPrice)
	}
}

func TestSimulate_LaterDayGap(t *testing.T) {
	s, off := forward(
		bar(10, 10, 10, 10),
		bar(10.0, 10.2, 9.95, 10.0),
		bar(9.50, 9.6, 9.4, 9.5),
	)
	out, ok := Simulate("600000", s, 10.00, off, Params{TargetReturn: 0.06, StopLossPct: 0.01, HorizonDays: 2})
	if !ok {
		t.Fatalf("应模拟成功")
	}
	if out.ExitReason != model.ExitStopLossFailed || out.ExitPrice != 9.50 || out.HoldDays != 2 {
		t.Fatalf("got %s @ %f day %d, want stop_loss_failed @ 9.50 day 2", out.ExitReason, out.ExitPrice, out.HoldDays)
	}
}

func TestSimulate_Exclusions(t *testing.T) {
	s, off := forward(bar(10, 10, 10, 10), bar(10, 10, 10, 10))
	p := Params{TargetReturn: 0.02, StopLossPct: 0.01, HorizonDays: 1}

	if _, ok := Simulate("x", s, 0, off, p); ok {
		t.Errorf("买入价为 0 应被排除")
	}
	if _, ok := Simulate("x", s, -1, off, p); ok {
		t.Errorf("买入价为负应被排除")
	}
	if _, ok := Simulate("x", s, 10, 0, p); ok {
		t.Errorf("决策日为最新交易日时没有后续数据，应被排除")
	}
	if _, ok := Simulate("x", s, 10, 5, p); ok {
		t.Errorf("偏移量越界应被排除")
	}
	if _, ok := Simulate("x", nil, 10, 1, p); ok {
		t.Errorf("空序列应被排除")
	}
}

func TestGuardPolicy(t *testing.T) {
	g := NewGuardPolicy("", 0.01, 2)
	if g.Name() != "guard_2d" {
		t.Fatalf("Name=%s, want guard_2d", g.Name())
	}

	s, off := forward(bar(10, 10, 10, 10), bar(10.0, 10.2, 9.95, 10.1), bar(10.1, 10.3, 9.92, 10.0))
	out, ok := g.Simulate("x", s, 10.00, off)
	if !ok || out.ExitReason != model.ExitTargetReached || out.HoldDays != 2 {
		t.Fatalf("got %+v ok=%v, want target_reached hold 2", out, ok)
	}

	s, off = forward(bar(10, 10, 10, 10), bar(10.0, 10.2, 9.95, 10.1), bar(10.1, 10.3, 9.85, 10.5))
	out, ok = g.Simulate("x", s, 10.00, off)
	if !ok || out.ExitReason != model.ExitStopLoss || out.ReturnPct != -0.01 {
		t.Fatalf("got %+v ok=%v, want stop_loss -0.01", out, ok)
	}
}

func TestNew_Registry(t *testing.T) {
	p, err := New(config.TargetConfig{Name: "return_3d", Type: "return", TargetReturn: 0.06, StopLoss: 0.01, InDays: 3})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if p.Name() != "return_3d" || p.Params().HorizonDays != 3 {
		t.Fatalf("Name=%s Horizon=%d", p.Name(), p.Params().HorizonDays)
	}
	if _, ok := p.(*ReturnPolicy); !ok {
		t.Fatalf("type=%T, want *ReturnPolicy", p)
	}

	g, err := New(config.TargetConfig{Type: "guard", StopLoss: 0.01, InDays: 3})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if _, ok := g.(*GuardPolicy); !ok {
		t.Fatalf("type=%T, want *GuardPolicy", g)
	}

	if _, err := New(config.TargetConfig{Type: "trailing"}); err == nil {
		t.Fatalf("未知类型应返回错误")
	}

	all, err := NewAll([]config.TargetConfig{{Type: "return", TargetReturn: 0.02, InDays: 1}, {Type: "guard", InDays: 3}})
	if err != nil || len(all) != 2 || all[0].Name() != "return_1d" {
		t.Fatalf("NewAll = %v, %v", all, err)
	}
}

func TestSimulate_ReferenceScenarios(t *testing.T) {
	// 正常止损：第 2 天开盘 9.7 高于止损价 9.5，盘中最低 9.2
	s, off := forward(
		bar(10, 10, 10, 10),
		bar(10.1, 10.2, 9.6, 9.8),
		bar(9.7, 9.8, 9.2, 9.4),
		bar(9.4, 9.5, 9.0, 9.1),
	)
	out, ok := Simulate("x", s, 10.0, off, Params{TargetReturn: 0.1, StopLossPct: 0.05, HorizonDays: 3})
	if !ok || out.ExitReason != model.ExitStopLoss || out.HoldDays != 2 || out.ReturnPct != -0.05 || !approx(out.ExitPrice, 9.5, 1e-12) {
		t.Fatalf("正常止损 got %+v ok=%v", out, ok)
	}

	// 跳空止损失败：首日开盘 9.0，后续数据不再扫描
	s, off = forward(bar(10, 10, 10, 10), bar(9.0, 11, 8.9, 11), bar(12, 13, 12, 13))
	out, ok = Simulate("x", s, 10.0, off, Params{TargetReturn: 0.05, StopLossPct: 0.05, HorizonDays: 2})
	if !ok || out.ExitReason != model.ExitStopLossFailed || out.HoldDays != 1 || out.ExitPrice != 9.0 || !approx(out.ReturnPct, -0.10, 1e-12) {
		t.Fatalf("跳空止损失败 got %+v ok=%v", out, ok)
	}

	// 止盈：首日收盘 10.6，目标 10.5
	s, off = forward(bar(10, 10, 10, 10), bar(10.0, 10.7, 9.9, 10.6))
	out, ok = Simulate("x", s, 10.0, off, Params{TargetReturn: 0.05, StopLossPct: 0.05, HorizonDays: 1})
	if !ok || out.ExitReason != model.ExitTargetReached || out.HoldDays != 1 || !approx(out.ReturnPct, 0.06, 1e-12) {
		t.Fatalf("止盈 got %+v ok=%v", out, ok)
	}
}
