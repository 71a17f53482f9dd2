// Package model 日线序列测试
package model

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        []Bar
		wantDates []int
		wantClose []float64
	}{
		{"空输入", nil, nil, nil},
		{"正序转倒序",
			[]Bar{{Date: 20240102, Close: 1}, {Date: 20240103, Close: 2}, {Date: 20240104, Close: 3}},
			[]int{20240104, 20240103, 20240102}, []float64{3, 2, 1}},
		{"乱序",
			[]Bar{{Date: 20240103, Close: 2}, {Date: 20240105, Close: 4}, {Date: 20240102, Close: 1}},
			[]int{20240105, 20240103, 20240102}, []float64{4, 2, 1}},
		{"重复日期保留最后一次出现",
			[]Bar{{Date: 20240102, Close: 1}, {Date: 20240103, Close: 2}, {Date: 20240102, Close: 9}},
			[]int{20240103, 20240102}, []float64{2, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Normalize(tt.in)
			var dates []int
			var closes []float64
			for i, b := range s {
				if i > 0 && b.Date >= s[i-1].Date {
					t.Fatalf("日期未严格递减: %d 之后为 %d", s[i-1].Date, b.Date)
				}
				dates = append(dates, b.Date)
				closes = append(closes, b.Close)
			}
			if !reflect.DeepEqual(dates, tt.wantDates) {
				t.Fatalf("dates=%v, want %v", dates, tt.wantDates)
			}
			if !reflect.DeepEqual(closes, tt.wantClose) {
				t.Fatalf("closes=%v, want %v", closes, tt.wantClose)
			}
		})
	}
}

func TestSeries_HorizonBoundaries(t *testing.T) {
	// 倒序: 索引 0 最新, 索引 4 最早
	s := Normalize([]Bar{
		{Date: 20240101, Close: 1},
		{Date: 20240102, Close: 2},
		{Date: 20240103, Close: 3},
		{Date: 20240104, Close: 4},
		{Date: 20240105, Close: 5},
	})

	tests := []struct {
		name    string
		offset  int
		horizon int
		want    bool
	}{
		{"offset 等于 horizon", 3, 3, true},
		{"offset 小于 horizon", 2, 3, false},
		{"offset 为 len-1", 4, 4, true},
		{"offset 为 len-1 且 horizon 过长", 4, 5, false},
		{"offset 越界", 5, 1, false},
		{"offset 为负", -1, 0, false},
		{"最新交易日无后续数据", 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.HasHorizon(tt.offset, tt.horizon); got != tt.want {
				t.Fatalf("HasHorizon(%d, %d)=%v, want %v", tt.offset, tt.horizon, got, tt.want)
			}
		})
	}

	// offset == horizon 时最后一个持有日为最新交易日
	if b, ok := s.Forward(3, 3); !ok || b.Date != 20240105 {
		t.Fatalf("Forward(3, 3)=%+v ok=%v, want 20240105", b, ok)
	}
	// offset 为 len-1 时第 1 天为第二早的交易日
	if b, ok := s.Forward(4, 1); !ok || b.Date != 20240102 {
		t.Fatalf("Forward(4, 1)=%+v ok=%v, want 20240102", b, ok)
	}
	if _, ok := s.Forward(3, 4); ok {
		t.Fatalf("Forward(3, 4) 越过最新交易日应返回 false")
	}
	if _, ok := s.At(len(s)); ok {
		t.Fatalf("At(len) 应返回 false")
	}
}

func TestSeries_WindowAndArrays(t *testing.T) {
	s := Normalize([]Bar{
		{Date: 20240101, High: 11, Low: 9, Close: 10},
		{Date: 20240102, High: 12, Low: 10, Close: 11},
		{Date: 20240103, High: 13, Low: 11, Close: 12},
	})

	w := s.Window(1, 5)
	if len(w) != 2 || w[0].Date != 20240102 {
		t.Fatalf("Window(1, 5)=%+v, want 2 bars from 20240102", w)
	}
	if got := s.Window(3, 1); got != nil {
		t.Fatalf("Window 越界应返回 nil, got %+v", got)
	}
	if got := s.Closes(); !reflect.DeepEqual(got, []float64{10, 11, 12}) {
		t.Fatalf("Closes=%v, want 正序 [10 11 12]", got)
	}
	if got := s.Highs(); !reflect.DeepEqual(got, []float64{11, 12, 13}) {
		t.Fatalf("Highs=%v", got)
	}
	if got := s.Lows(); !reflect.DeepEqual(got, []float64{9, 10, 11}) {
		t.Fatalf("Lows=%v", got)
	}
}
