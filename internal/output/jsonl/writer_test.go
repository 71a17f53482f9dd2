// Package jsonl 输出模块测试
package jsonl

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"strategy-lab/internal/core/model"
)

// **Feature: strategy-lab, Property 9: Trade Record Output Completeness**

func TestTradeRecord_OutputCompleteness_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("trades.jsonl 每行必含必需字段", prop.ForAll(
		func(entryPx, exitPx float64, hold int, reason string) bool {
			rec := TradeRecord{
				Selector: "ATR波动选股策略",
				Signal:   "收盘价信号",
				Target:   "return_3d",
				Trade: model.TradeOutcome{
					Symbol:     "600000",
					EntryDate:  20240102,
					EntryPrice: entryPx,
					ExitDate:   20240105,
					ExitPrice:  exitPx,
					ReturnPct:  (exitPx - entryPx) / entryPx,
					HoldDays:   hold,
					ExitReason: model.ExitReason(reason),
				},
			}

			b, err := json.Marshal(rec)
			if err != nil {
				return false
			}
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				return false
			}
			for _, k := range []string{"selector", "signal", "target", "trade"} {
				if _, ok := m[k]; !ok {
					return false
				}
			}
			trade, ok := m["trade"].(map[string]any)
			if !ok {
				return false
			}
			for _, k := range []string{"symbol", "entry_date", "entry_price", "exit_date", "exit_price", "return_pct", "hold_days", "exit_reason"} {
				if _, ok := trade[k]; !ok {
					return false
				}
			}
			return trade["exit_reason"] == reason
		},
		gen.Float64Range(0.5, 500),
		gen.Float64Range(0.5, 500),
		gen.IntRange(1, 10),
		gen.OneConstOf("target_reached", "stop_loss", "stop_loss_failed", "time_expired"),
	))

	properties.TestingRun(t)
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lines := 0
	for sc.Scan() {
		lines++
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return lines
}

func TestWriter_WriteAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "trades.jsonl")

	w, err := NewWriter(path, 100)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	trades := make([]model.TradeOutcome, 10)
	for i := range trades {
		trades[i] = model.TradeOutcome{Symbol: "600000", HoldDays: i + 1, ExitReason: model.ExitTimeExpired}
	}
	if err := w.WriteTrades("s", "g", "t", trades); err != nil {
		t.Fatalf("WriteTrades: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := countLines(t, path); got != 10 {
		t.Fatalf("flush 后 lines=%d, want 10", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Written() != 10 {
		t.Fatalf("Written=%d, want 10", w.Written())
	}
	if err := w.Write(TradeRecord{}); err != ErrClosed {
		t.Fatalf("关闭后 Write err=%v, want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("重复 Close: %v", err)
	}

	// 重新打开会覆盖旧文件
	w, err = NewWriter(path, 10)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write(TradeRecord{Selector: "x"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := countLines(t, path); got != 1 {
		t.Fatalf("lines=%d, want 1", got)
	}
}

func TestWriter_DropsUnencodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.jsonl")
	w, err := NewWriter(path, 4)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	_ = w.Write(map[string]float64{"v": math.Inf(1)})
	_ = w.Write(map[string]float64{"v": 1})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Dropped() != 1 || w.Written() != 1 {
		t.Fatalf("Dropped=%d Written=%d, want 1 / 1", w.Dropped(), w.Written())
	}
	if got := countLines(t, path); got != 1 {
		t.Fatalf("lines=%d, want 1", got)
	}
}

func TestWriter_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.jsonl")
	w, err := NewWriter(path, 8)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = w.Write(map[string]int{"g": g, "i": i})
			}
		}(g)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := countLines(t, path); got != 400 {
		t.Fatalf("lines=%d, want 400", got)
	}
}
