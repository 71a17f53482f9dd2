package model

// Candidate 选股结果
type Candidate struct {
	// Symbol 标的代码
	Symbol string
	// Series 标的日线序列
	Series Series
	// Score 选股得分，越高越优先
	Score float64
}

// Signal 入场信号
// BuyPrice <= 0 表示不入场，不计入交易统计
type Signal struct {
	// Symbol 标的代码
	Symbol string
	// Series 标的日线序列
	Series Series
	// BuyPrice 假设买入价
	BuyPrice float64
}

// Tradable 是否可入场
func (s Signal) Tradable() bool {
	return s.BuyPrice > 0
}
