package market

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"strategy-lab/internal/core/model"
	"strategy-lab/internal/util/fastparse"
	"strategy-lab/internal/util/timeutil"
)

// csvColumns CSV 必需列
var csvColumns = []string{"date", "open", "high", "low", "close", "volume"}

// CSVSource 从目录加载行情，每个标的一个 <symbol>.csv 文件
// 文件首行为表头，列顺序任意，amount 列可选
type CSVSource struct {
	dir string
}

// NewCSVSource 创建 CSV 数据源
func NewCSVSource(dir string) (*CSVSource, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("打开行情目录失败: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("行情路径不是目录: %s", dir)
	}
	return &CSVSource{dir: dir}, nil
}

// Symbols 列出目录下全部 .csv 文件对应的标的
func (s *CSVSource) Symbols(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("读取行情目录失败: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	sort.Strings(out)
	return out, nil
}

// Bars 读取单个标的的 CSV 文件
func (s *CSVSource) Bars(ctx context.Context, symbol string) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if symbol == "" || strings.ContainsAny(symbol, `/\`) {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	f, err := os.Open(filepath.Join(s.dir, symbol+".csv"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
		}
		return nil, fmt.Errorf("打开行情文件失败: %w", err)
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}
	return bars, nil
}

// Close CSV 数据源无需释放资源
func (s *CSVSource) Close() error { return nil }

// ReadCSV 解析带表头的日线 CSV
// 返回整理后的倒序序列；价格非正的行被丢弃
func ReadCSV(r io.Reader) (model.Series, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range csvColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("缺少列: %s", c)
		}
	}
	amountCol, hasAmount := idx["amount"]

	var bars []model.Bar
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		b, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		if hasAmount && amountCol < len(rec) {
			if b.Amount, err = fastparse.ParseQuantity(rec[amountCol]); err != nil {
				return nil, fmt.Errorf("第 %d 行 amount: %w", line, err)
			}
		}
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			continue
		}
		bars = append(bars, b)
	}
	return model.Normalize(bars), nil
}

func parseRecord(rec []string, idx map[string]int) (model.Bar, error) {
	field := func(name string) string {
		if i := idx[name]; i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var b model.Bar
	var err error
	if b.Date, err = timeutil.ParseDate(field("date")); err != nil {
		return b, err
	}
	prices := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open},
		{"high", &b.High},
		{"low", &b.Low},
		{"close", &b.Close},
	}
	for _, p := range prices {
		if *p.dst, err = fastparse.ParseFloat(field(p.name)); err != nil {
			return b, fmt.Errorf("%s: %w", p.name, err)
		}
	}
	if b.Volume, err = fastparse.ParseQuantity(field("volume")); err != nil {
		return b, fmt.Errorf("volume: %w", err)
	}
	return b, nil
}
