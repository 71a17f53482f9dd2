// Package model 定义回测引擎中使用的核心数据结构。
package model

import "sort"

// Bar 单日行情
type Bar struct {
	// Date 交易日期，格式 YYYYMMDD，如 20240105
	Date int `json:"date"`
	// Open 开盘价
	Open float64 `json:"open"`
	// High 最高价
	High float64 `json:"high"`
	// Low 最低价
	Low float64 `json:"low"`
	// Close 收盘价
	Close float64 `json:"close"`
	// Volume 成交量
	Volume int64 `json:"volume"`
	// Amount 成交额
	Amount int64 `json:"amount"`
}

// Series 单个标的的日线序列
// 倒序存储：索引 0 为最新交易日，索引越大日期越早（日期随索引严格递减）。
// 决策日为索引 f 时，其后第 k 个交易日位于索引 f-k。
type Series []Bar

// Len 序列长度
func (s Series) Len() int {
	return len(s)
}

// At 按索引获取 K 线，越界返回 false
func (s Series) At(i int) (Bar, bool) {
	if i < 0 || i >= len(s) {
		return Bar{}, false
	}
	return s[i], true
}

// Forward 获取决策日 offset 之后第 k 个交易日的 K 线
// 参数 offset: 决策日索引
// 参数 k: 持有第 k 天（k >= 1）
func (s Series) Forward(offset, k int) (Bar, bool) {
	return s.At(offset - k)
}

// HasHorizon 判断决策日 offset 之后是否还有 horizon 个交易日
func (s Series) HasHorizon(offset, horizon int) bool {
	return offset >= 0 && offset < len(s) && offset-horizon >= 0
}

// Window 取决策日及其之前共 n 根 K 线（仍为倒序）
// 数据不足时返回可用部分
func (s Series) Window(offset, n int) Series {
	if offset < 0 || offset >= len(s) || n <= 0 {
		return nil
	}
	end := offset + n
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end]
}

// Closes 正序收盘价
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[len(s)-1-i] = s[i].Close
	}
	return out
}

// Highs 正序最高价
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[len(s)-1-i] = s[i].High
	}
	return out
}

// Lows 正序最低价
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[len(s)-1-i] = s[i].Low
	}
	return out
}

// Normalize 整理为倒序且日期严格递减
// 同一日期重复出现时保留最后一次出现的记录
func Normalize(bars []Bar) Series {
	if len(bars) == 0 {
		return nil
	}
	byDate := make(map[int]Bar, len(bars))
	for _, b := range bars {
		byDate[b.Date] = b
	}
	out := make(Series, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Panel 截面数据：标的 -> 日线序列
// 遍历须使用 Symbols()，保证顺序确定
type Panel struct {
	series  map[string]Series
	symbols []string
}

// NewPanel 创建截面数据
func NewPanel(data map[string]Series) *Panel {
	p := &Panel{
		series:  make(map[string]Series, len(data)),
		symbols: make([]string, 0, len(data)),
	}
	for sym, s := range data {
		p.series[sym] = s
		p.symbols = append(p.symbols, sym)
	}
	sort.Strings(p.symbols)
	return p
}

// Symbols 按字典序排列的标的列表
func (p *Panel) Symbols() []string {
	if p == nil {
		return nil
	}
	return p.symbols
}

// Get 获取标的的日线序列
func (p *Panel) Get(symbol string) (Series, bool) {
	if p == nil {
		return nil, false
	}
	s, ok := p.series[symbol]
	return s, ok
}

// Len 标的数量
func (p *Panel) Len() int {
	if p == nil {
		return 0
	}
	return len(p.symbols)
}
